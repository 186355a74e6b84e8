package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PreferenceStore defines the database operations needed to record preferences
type PreferenceStore interface {
	SetDoubleDutyPreference(ctx context.Context, employeeID int, prefer bool) error
}

// SetDoubleDutyPreference records whether an employee wants Saturday and Sunday
// of the same weekend together. Unknown employees surface db.ErrNotFound.
func SetDoubleDutyPreference(ctx context.Context, store PreferenceStore, logger *zap.Logger, employeeID int, prefer bool) error {
	if employeeID <= 0 {
		return fmt.Errorf("%w: employee id must be positive, got %d", ErrInvalidRequest, employeeID)
	}

	if err := store.SetDoubleDutyPreference(ctx, employeeID, prefer); err != nil {
		return fmt.Errorf("failed to set double duty preference: %w", err)
	}

	logger.Info("Double duty preference updated", zap.Int("employee_id", employeeID), zap.Bool("prefer", prefer))
	return nil
}
