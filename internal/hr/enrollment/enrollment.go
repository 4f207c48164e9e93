// Package enrollment owns the time-bounded semantics of
// employee-benefit enrollments: interval validation, overlap
// prevention, active-state derivation, and the effective-amount
// projection.
package enrollment

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/google/uuid"
)

// Store is the slice of the entity store the manager needs.
type Store interface {
	EnrollmentsForPair(ctx context.Context, employeeID, benefitID uuid.UUID) ([]models.EmployeeBenefit, error)
	GetBenefitUnscoped(ctx context.Context, id uuid.UUID) (*models.Benefit, error)
}

// Manager validates enrollment intervals and derives their state.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager constructs a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. A nil end extends to +inf.
func Overlaps(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	aBeforeBEnd := bEnd == nil || aStart.Before(*bEnd)
	bBeforeAEnd := aEnd == nil || bStart.Before(*aEnd)
	return aBeforeBEnd && bBeforeAEnd
}

// IsActive reports whether the enrollment interval contains asOf:
// start <= asOf and (end is nil or asOf < end).
func IsActive(en *models.EmployeeBenefit, asOf time.Time) bool {
	if asOf.Before(en.StartDate) {
		return false
	}
	return en.EndDate == nil || asOf.Before(*en.EndDate)
}

// Validate checks the shape of an enrollment: a set start date, an
// end strictly after the start, and a non-negative custom amount.
func (m *Manager) Validate(en *models.EmployeeBenefit) error {
	if en.StartDate.IsZero() {
		return e.InvalidInput("enrollment", "start date is required")
	}
	if en.EndDate != nil && !en.EndDate.After(en.StartDate) {
		return e.InvalidInput("enrollment", "end date must be after start date")
	}
	if en.CustomAmount != nil && *en.CustomAmount < 0 {
		return e.InvalidInput("enrollment", "custom amount must not be negative")
	}
	return nil
}

// CheckOverlap scans the stored enrollments of the same
// (employee, benefit) pair and rejects the candidate interval if it
// intersects any of them. excludeID skips the enrollment being
// updated so it does not collide with itself.
func (m *Manager) CheckOverlap(ctx context.Context, en *models.EmployeeBenefit, excludeID uuid.UUID) error {
	existing, err := m.store.EnrollmentsForPair(ctx, en.EmployeeID, en.BenefitID)
	if err != nil {
		return fmt.Errorf("scanning enrollments for pair: %w", err)
	}
	for i := range existing {
		other := &existing[i]
		if other.ID == excludeID {
			continue
		}
		if Overlaps(en.StartDate, en.EndDate, other.StartDate, other.EndDate) {
			return e.OverlapConflict("enrollment", other.ID.String(),
				fmt.Sprintf("interval collides with enrollment starting %s", other.StartDate.Format("2006-01-02")))
		}
	}
	return nil
}

// EffectiveAmount resolves the monetary value applicable to the
// enrollment: the custom amount when set, otherwise the referenced
// benefit's current value. The benefit is read on every call so value
// changes propagate without a stored copy; tombstoned benefits still
// resolve for historical enrollments.
func (m *Manager) EffectiveAmount(ctx context.Context, en *models.EmployeeBenefit) (float64, error) {
	if en.CustomAmount != nil {
		return *en.CustomAmount, nil
	}
	benefit, err := m.store.GetBenefitUnscoped(ctx, en.BenefitID)
	if err != nil {
		return 0, fmt.Errorf("resolving benefit value: %w", err)
	}
	return benefit.Value, nil
}

// ActiveNow reports whether the enrollment is active at the manager's
// current clock.
func (m *Manager) ActiveNow(en *models.EmployeeBenefit) bool {
	return IsActive(en, m.now())
}
