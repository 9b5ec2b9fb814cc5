package service

import (
	"context"
	"ctfplatform"
	"errors"
	"strings"
	"time"

	"ctfplatform/internal/repository"
)

// EventFilter narrows an audit log listing. Zero times mean unbounded.
type EventFilter struct {
	From time.Time
	To   time.Time
	Type string
}

type AuditLogService struct {
	events repository.Events
}

func NewAuditLogService(events repository.Events) *AuditLogService {
	return &AuditLogService{events: events}
}

var _ AuditLog = (*AuditLogService)(nil)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f EventFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

// Record appends one auth event. The repository assigns id and timestamp.
func (s *AuditLogService) Record(ctx context.Context, typ, username string, meta any) error {
	return s.events.Append(ctx, ctfplatform.AuthEvent{
		Type:     typ,
		Username: username,
		Metadata: meta,
	})
}

func (s *AuditLogService) List(ctx context.Context, f EventFilter) ([]ctfplatform.AuthEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, from, to, typ)
}
