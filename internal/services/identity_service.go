package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/memorylane/recall-service/internal/cache"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
)

const roleCacheTTL = 5 * time.Minute

// IdentityService maps an authenticated account onto its application role.
type IdentityService interface {
	// ResolveRole returns the caller's role if it is one of allowed. An account with no
	// role record becomes a caregiver when caregivers are allowed.
	ResolveRole(ctx context.Context, sub string, allowed ...models.UserRole) (models.UserRole, error)
	// CurrentRole reports the stored role, or the default role, without writing anything.
	CurrentRole(ctx context.Context, sub string) (models.UserRole, error)
	SetRole(ctx context.Context, tx *gorm.DB, sub string, role models.UserRole) error
	InvalidateRole(ctx context.Context, sub string)
}

type identityService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *slog.Logger
}

func NewIdentityService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger) IdentityService {
	return &identityService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

func (s *identityService) ResolveRole(ctx context.Context, sub string, allowed ...models.UserRole) (models.UserRole, error) {
	if sub == "" {
		return "", ErrUnauthenticated
	}

	role, found, err := s.lookupRole(ctx, sub)
	if err != nil {
		return "", err
	}

	if !found {
		if !slices.Contains(allowed, models.RoleCaregiver) {
			return "", ErrRoleNotAllowed
		}
		if err := s.SetRole(ctx, nil, sub, models.RoleCaregiver); err != nil {
			return "", err
		}
		s.logger.Info("Registered new caregiver", "user_sub", sub)
		return models.RoleCaregiver, nil
	}

	if len(allowed) > 0 && !slices.Contains(allowed, role) {
		return "", ErrRoleNotAllowed
	}
	return role, nil
}

func (s *identityService) CurrentRole(ctx context.Context, sub string) (models.UserRole, error) {
	role, found, err := s.lookupRole(ctx, sub)
	if err != nil {
		return "", err
	}
	if !found {
		return models.DefaultRole, nil
	}
	return role, nil
}

func (s *identityService) SetRole(ctx context.Context, tx *gorm.DB, sub string, role models.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}
	record := &models.UserRoleRecord{Sub: sub, Role: role}
	if err := s.repo.UserRole().Upsert(ctx, tx, record); err != nil {
		return fmt.Errorf("failed to store role: %w", err)
	}
	s.InvalidateRole(ctx, sub)
	return nil
}

func (s *identityService) InvalidateRole(ctx context.Context, sub string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, roleCacheKey(sub)); err != nil {
		s.logger.Warn("Failed to invalidate cached role", "user_sub", sub, "error", err)
	}
}

// lookupRole reads through the cache; a cache outage falls back to the database.
func (s *identityService) lookupRole(ctx context.Context, sub string) (models.UserRole, bool, error) {
	if s.cache != nil {
		var cached models.UserRole
		err := s.cache.Get(ctx, roleCacheKey(sub), &cached)
		if err == nil && cached.IsValid() {
			return cached, true, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Role cache unavailable", "user_sub", sub, "error", err)
		}
	}

	record, err := s.repo.UserRole().GetBySub(ctx, nil, sub)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get role: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, roleCacheKey(sub), record.Role, roleCacheTTL); err != nil {
			s.logger.Debug("Failed to cache role", "user_sub", sub, "error", err)
		}
	}
	return record.Role, true, nil
}

func roleCacheKey(sub string) string {
	return "role:" + sub
}
