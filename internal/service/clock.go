package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// Clock returns the current instant. Services evaluate it in the configured timezone.
type Clock func() time.Time

// NewClock returns a clock reporting time in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

func (c Clock) today() time.Time {
	if c == nil {
		return models.DateOnly(time.Now().UTC())
	}
	return models.DateOnly(c())
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// recordAudit stores an audit entry; failures are logged and never fail the request.
func recordAudit(ctx context.Context, repo auditRecorder, logger *zap.Logger, meta models.AuditMeta, action, resource, resourceID string, values interface{}) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if meta.UserID != "" {
		userID := meta.UserID
		entry.UserID = &userID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if values != nil {
		if payload, err := json.Marshal(values); err == nil {
			entry.NewValues = payload
		}
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

// dashboardCachePattern matches every cached dashboard view.
const dashboardCachePattern = "dashboard:*"

func invalidateDashboards(ctx context.Context, cache *CacheService) {
	// CacheService logs its own failures
	_ = cache.Invalidate(ctx, dashboardCachePattern)
}
