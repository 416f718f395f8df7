package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInviteNotFound = errors.New("invite not found or expired")
	ErrInviteExists   = errors.New("invite token already issued")
)

// InviteStore keeps single-use invite tokens until they expire or are consumed.
type InviteStore interface {
	Save(ctx context.Context, invite *models.Invite) error
	Consume(ctx context.Context, token string) (*models.Invite, error)
}

type redisInviteStore struct {
	client redis.UniversalClient
}

func NewRedisInviteStore(client redis.UniversalClient) InviteStore {
	return &redisInviteStore{client: client}
}

func (s *redisInviteStore) Save(ctx context.Context, invite *models.Invite) error {
	ttl := time.Until(invite.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("invite %s already expired", invite.Token)
	}

	data, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}

	ok, err := s.client.SetNX(ctx, inviteKey(invite.Token), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrInviteExists
	}
	return nil
}

// Consume atomically reads and removes the token; a second call sees ErrInviteNotFound.
func (s *redisInviteStore) Consume(ctx context.Context, token string) (*models.Invite, error) {
	data, err := s.client.GetDel(ctx, inviteKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}

	var invite models.Invite
	if err := json.Unmarshal(data, &invite); err != nil {
		return nil, fmt.Errorf("failed to decode invite: %w", err)
	}
	if invite.IsExpired(time.Now()) {
		return nil, ErrInviteNotFound
	}
	return &invite, nil
}

func inviteKey(token string) string {
	return "invite:" + token
}
