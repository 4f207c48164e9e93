package controller

import (
	"context"
	"fmt"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/pkg/keylock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayrollService manages the payroll entries owned by employees.
// Updates to one entry are serialized on its key so the derived net
// salary is always validated against the row the write will land on.
type PayrollService struct {
	repo     Repository
	engine   *query.Engine
	locks    *keylock.KeyedMutex
	producer EventProducer
	logger   *zap.Logger
}

// NewPayrollService constructs a PayrollService.
func NewPayrollService(repo Repository, engine *query.Engine, producer EventProducer, logger *zap.Logger) *PayrollService {
	return &PayrollService{
		repo:     repo,
		engine:   engine,
		locks:    keylock.New(),
		producer: producer,
		logger:   logger.Named("payroll_service"),
	}
}

func payrollKey(id uuid.UUID) string {
	return "payroll:" + id.String()
}

func validatePayrollAmounts(gross, deductions, discount float64) error {
	if gross < 0 || deductions < 0 || discount < 0 {
		return e.InvalidInput("payroll", "amounts must not be negative")
	}
	if gross-deductions-discount < 0 {
		return e.InvalidInput("payroll", "net salary must not be negative")
	}
	return nil
}

// Create adds a payroll entry for one employee and reference month.
// A second entry for the same pair surfaces as DuplicateKey.
func (s *PayrollService) Create(ctx context.Context, p *models.Payroll) (*models.Payroll, error) {
	if p.EmployeeID == uuid.Nil {
		return nil, e.InvalidInput("payroll", "employee reference is required")
	}
	if !p.ReferenceMonth.Valid() {
		return nil, e.InvalidInput("payroll", "reference month must be YYYY-MM")
	}
	if err := validatePayrollAmounts(p.GrossSalary, p.Deductions, p.Discount); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetEmployee(ctx, p.EmployeeID); err != nil {
		return nil, fmt.Errorf("checking employee reference: %w", err)
	}

	p.ID = uuid.New()
	if err := s.repo.CreatePayroll(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payroll: %w", err)
	}
	s.producer.Produce(events.PayrollCreated, p.ID, p)
	return p, nil
}

// Get retrieves a payroll entry by id.
func (s *PayrollService) Get(ctx context.Context, id uuid.UUID) (*models.Payroll, error) {
	return s.repo.GetPayroll(ctx, id)
}

// Update patches the monetary components, re-validating the derived
// net salary against the would-be stored values.
func (s *PayrollService) Update(ctx context.Context, update *models.PayrollUpdate) (*models.Payroll, error) {
	if update.ID == uuid.Nil {
		return nil, e.InvalidInput("payroll", "invalid payroll ID")
	}
	key := payrollKey(update.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	current, err := s.repo.GetPayroll(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	gross, deductions, discount := current.GrossSalary, current.Deductions, current.Discount
	if update.GrossSalary != nil {
		gross = *update.GrossSalary
	}
	if update.Deductions != nil {
		deductions = *update.Deductions
	}
	if update.Discount != nil {
		discount = *update.Discount
	}
	if err := validatePayrollAmounts(gross, deductions, discount); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePayroll(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update payroll: %w", err)
	}
	updated, err := s.repo.GetPayroll(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.PayrollUpdated, updated.ID, updated)
	return updated, nil
}

// Delete removes a payroll entry.
func (s *PayrollService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePayroll(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payroll: %w", err)
	}
	s.producer.Produce(events.PayrollDeleted, id, nil)
	return nil
}

// Search runs the composed payroll query. A department criterion
// first checks the department exists, then narrows to its employees'
// entries.
func (s *PayrollService) Search(ctx context.Context, search query.PayrollSearch, sort query.Sort, page query.Page) (query.Result[models.Payroll], error) {
	if search.DepartmentID != nil {
		if _, err := s.repo.GetDepartment(ctx, *search.DepartmentID); err != nil {
			return query.Result[models.Payroll]{}, err
		}
	}
	return s.engine.SearchPayrolls(ctx, search, sort, page)
}

// List returns one page of payroll entries matching the filter.
func (s *PayrollService) List(ctx context.Context, f query.PayrollFilter, sort query.Sort, page query.Page) (query.Result[models.Payroll], error) {
	page = page.Normalize()
	items, total, err := s.repo.ListPayrolls(ctx, f, sort, page)
	if err != nil {
		return query.Result[models.Payroll]{}, err
	}
	return query.Result[models.Payroll]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}
