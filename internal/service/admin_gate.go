package service

import (
	"context"

	"go.uber.org/zap"

	"feeledger/internal/models"
	"feeledger/internal/password"
)

// AdminLookup resolves the configured administrator account.
type AdminLookup interface {
	FindAdmin(ctx context.Context) (*models.Staff, error)
}

// AdminGate authorizes destructive mutations with a second-factor PIN check.
// The check is stateless: every privileged call re-verifies against the
// administrator's stored credential.
type AdminGate struct {
	staff  AdminLookup
	hasher password.Hasher
	logger *zap.Logger
}

// NewAdminGate builds the gate.
func NewAdminGate(staff AdminLookup, hasher password.Hasher, logger *zap.Logger) *AdminGate {
	return &AdminGate{staff: staff, hasher: hasher, logger: logger}
}

// VerifySecondFactor reports whether the supplied PIN matches the
// administrator's credential. Any failure to resolve the admin account is
// treated as a rejection.
func (g *AdminGate) VerifySecondFactor(ctx context.Context, pin string) bool {
	if pin == "" {
		return false
	}
	admin, err := g.staff.FindAdmin(ctx)
	if err != nil {
		g.logger.Warn("admin lookup failed during pin check", zap.Error(err))
		return false
	}
	return g.hasher.Compare(admin.PasswordHash, pin) == nil
}
