package services

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/memorylane/recall-service/internal/events"
	"gorm.io/datatypes"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func stringPtr(s string) *string {
	return &s
}

// optionalString trims s and maps an empty result to nil
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func tagsColumn(tags []string) datatypes.JSONSlice[string] {
	if tags == nil {
		return nil
	}
	return datatypes.JSONSlice[string](tags)
}

func embeddingColumn(values []float32) datatypes.JSONSlice[float32] {
	return datatypes.JSONSlice[float32](values)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var codeFence = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// StripCodeFence returns the body of the first fenced block, or s unchanged.
func StripCodeFence(s string) string {
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// publishEvent never fails the caller; broker problems are only logged.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Event publish failed", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}
