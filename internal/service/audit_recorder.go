package service

import (
	"context"

	"go.uber.org/zap"

	"feeledger/internal/models"
)

// AuditStore appends and reads audit entries.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditRecorder writes an immutable note for every privileged mutation.
// Writes are best-effort: a failed audit append is logged and swallowed so it
// can never roll back or block the ledger mutation it describes.
type AuditRecorder struct {
	store  AuditStore
	logger *zap.Logger
}

// NewAuditRecorder builds the recorder.
func NewAuditRecorder(store AuditStore, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{store: store, logger: logger}
}

// Record appends an audit entry.
func (a *AuditRecorder) Record(ctx context.Context, staffID int64, actionType, description string) {
	entry := &models.AuditLog{
		StaffID:     staffID,
		ActionType:  actionType,
		Description: description,
	}
	if err := a.store.Create(ctx, entry); err != nil {
		a.logger.Warn("audit write failed",
			zap.Int64("staff_id", staffID),
			zap.String("action", actionType),
			zap.Error(err),
		)
	}
}

// Recent returns the newest audit entries.
func (a *AuditRecorder) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return a.store.ListRecent(ctx, limit)
}
