package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, component string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", "recall-service", "component", component),
	}
}

// LogOperation logs the outcome of a service call at a level derived from the error class.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userSub, resourceID, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsBadRequest(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err), IsForbidden(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsNotFound(err):
			status = "not_found"
		case IsMisconfigured(err):
			status = "misconfigured"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_sub", userSub),
		slog.String("resource_id", resourceID),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		var permErr *PermissionError
		if errors.As(err, &permErr) {
			attrs = append(attrs, slog.String("permission_action", permErr.Action))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// Logger exposes the component logger
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// SanitizeForLogging shortens inline image payloads and long model output before they reach the log.
func SanitizeForLogging(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i > 0 {
			return s[:i] + ",<" + fmt.Sprint(len(s)-i-1) + " bytes>"
		}
	}
	const maxLen = 200
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
