package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/hr/internal/hr/enrollment"
	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/pkg/keylock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnrollmentService manages employee-benefit enrollments. Writes
// touching one (employee, benefit) pair are serialized on the pair
// key and re-checked for interval overlap after the lock is held.
type EnrollmentService struct {
	repo     Repository
	manager  *enrollment.Manager
	engine   *query.Engine
	locks    *keylock.KeyedMutex
	producer EventProducer
	logger   *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo Repository, m *enrollment.Manager, engine *query.Engine, producer EventProducer, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		repo:     repo,
		manager:  m,
		engine:   engine,
		locks:    keylock.New(),
		producer: producer,
		logger:   logger.Named("enrollment_service"),
	}
}

func pairKey(employeeID, benefitID uuid.UUID) string {
	return "pair:" + employeeID.String() + ":" + benefitID.String()
}

// Assign enrolls an employee in a benefit over the given interval.
func (s *EnrollmentService) Assign(ctx context.Context, en *models.EmployeeBenefit) (*models.EmployeeBenefit, error) {
	if en.EmployeeID == uuid.Nil || en.BenefitID == uuid.Nil {
		return nil, e.InvalidInput("enrollment", "employee and benefit references are required")
	}
	if err := s.manager.Validate(en); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetEmployee(ctx, en.EmployeeID); err != nil {
		return nil, fmt.Errorf("checking employee reference: %w", err)
	}
	if _, err := s.repo.GetBenefit(ctx, en.BenefitID); err != nil {
		return nil, fmt.Errorf("checking benefit reference: %w", err)
	}

	key := pairKey(en.EmployeeID, en.BenefitID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.manager.CheckOverlap(ctx, en, uuid.Nil); err != nil {
		return nil, err
	}
	en.ID = uuid.New()
	if err := s.repo.CreateEnrollment(ctx, en); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}
	s.producer.Produce(events.BenefitAssigned, en.ID, en)
	return en, nil
}

// Get retrieves an enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id uuid.UUID) (*models.EmployeeBenefit, error) {
	return s.repo.GetEnrollment(ctx, id)
}

// Update patches the interval or the custom amount, re-running the
// overlap check against the would-be stored interval.
func (s *EnrollmentService) Update(ctx context.Context, update *models.EmployeeBenefitUpdate) (*models.EmployeeBenefit, error) {
	if update.ID == uuid.Nil {
		return nil, e.InvalidInput("enrollment", "invalid enrollment ID")
	}
	current, err := s.repo.GetEnrollment(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	candidate := *current
	if update.StartDate != nil {
		candidate.StartDate = *update.StartDate
	}
	if update.ClearEndDate {
		candidate.EndDate = nil
	} else if update.EndDate != nil {
		candidate.EndDate = update.EndDate
	}
	if update.ClearCustomAmount {
		candidate.CustomAmount = nil
	} else if update.CustomAmount != nil {
		candidate.CustomAmount = update.CustomAmount
	}
	if err := s.manager.Validate(&candidate); err != nil {
		return nil, err
	}

	key := pairKey(current.EmployeeID, current.BenefitID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.manager.CheckOverlap(ctx, &candidate, current.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEnrollment(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update enrollment: %w", err)
	}
	updated, err := s.repo.GetEnrollment(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.EnrollmentUpdated, updated.ID, updated)
	return updated, nil
}

// End terminates an enrollment at the given date. Early termination
// (an end before today) is allowed; the shrunk interval is still
// checked against the pair's other enrollments.
func (s *EnrollmentService) End(ctx context.Context, id uuid.UUID, endDate time.Time) (*models.EmployeeBenefit, error) {
	current, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate := *current
	candidate.EndDate = &endDate
	if err := s.manager.Validate(&candidate); err != nil {
		return nil, err
	}

	key := pairKey(current.EmployeeID, current.BenefitID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.manager.CheckOverlap(ctx, &candidate, current.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEnrollment(ctx, &models.EmployeeBenefitUpdate{ID: id, EndDate: &endDate}); err != nil {
		return nil, fmt.Errorf("failed to end enrollment: %w", err)
	}
	updated, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.EnrollmentEnded, id, updated)
	return updated, nil
}

// Delete physically removes an enrollment (administrative path).
func (s *EnrollmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteEnrollment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	s.producer.Produce(events.EnrollmentDeleted, id, nil)
	return nil
}

// List returns one page of enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, f query.EnrollmentFilter, sort query.Sort, page query.Page) (query.Result[models.EmployeeBenefit], error) {
	page = page.Normalize()
	items, total, err := s.repo.ListEnrollments(ctx, f, sort, page)
	if err != nil {
		return query.Result[models.EmployeeBenefit]{}, err
	}
	return query.Result[models.EmployeeBenefit]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// EffectiveAmount resolves the monetary value applicable to the
// enrollment, recomputed on every read so benefit value changes
// propagate.
func (s *EnrollmentService) EffectiveAmount(ctx context.Context, id uuid.UUID) (float64, error) {
	en, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.manager.EffectiveAmount(ctx, en)
}

// ActiveBenefits lists the active benefits the employee is enrolled
// in as of the given instant.
func (s *EnrollmentService) ActiveBenefits(ctx context.Context, employeeID uuid.UUID, asOf time.Time, sort query.Sort, page query.Page) (query.Result[models.Benefit], error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return query.Result[models.Benefit]{}, err
	}
	return s.engine.ActiveBenefits(ctx, employeeID, asOf, sort, page)
}
