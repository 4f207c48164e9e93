package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/hr/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmployeeService manages employees, their department membership, and
// the composed employee searches.
type EmployeeService struct {
	repo      Repository
	validator *validator.Validator
	engine    *query.Engine
	producer  EventProducer
	logger    *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(repo Repository, v *validator.Validator, engine *query.Engine, producer EventProducer, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		validator: v,
		engine:    engine,
		producer:  producer,
		logger:    logger.Named("employee_service"),
	}
}

// Create adds a new employee after validating the required fields and
// the department reference, when present.
func (s *EmployeeService) Create(ctx context.Context, emp *models.Employee) (*models.Employee, error) {
	if emp.Name == "" {
		return nil, e.InvalidInput("employee", "name is required")
	}
	if emp.TaxID == "" {
		return nil, e.InvalidInput("employee", "tax id is required")
	}
	if emp.AdmissionDate.IsZero() {
		return nil, e.InvalidInput("employee", "admission date is required")
	}
	if emp.DepartmentID != nil {
		if _, err := s.repo.GetDepartment(ctx, *emp.DepartmentID); err != nil {
			return nil, fmt.Errorf("checking department reference: %w", err)
		}
	}

	emp.ID = uuid.New()
	if err := s.repo.CreateEmployee(ctx, emp); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	s.producer.Produce(events.EmployeeCreated, emp.ID, emp)
	return emp, nil
}

// Get retrieves an employee by id.
func (s *EmployeeService) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ByTaxID retrieves the employee holding the national tax id.
func (s *EmployeeService) ByTaxID(ctx context.Context, taxID string) (*models.Employee, error) {
	items, _, err := s.repo.ListEmployees(ctx, query.EmployeeFilter{TaxID: taxID}, query.Sort{}, query.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, e.NotFound("employee", taxID)
	}
	return &items[0], nil
}

// ManagedDepartment returns the department the employee manages, or
// nil when they manage none. The manager flag is derived from the
// department's manager link, never stored on the employee, so the two
// sides cannot drift apart.
func (s *EmployeeService) ManagedDepartment(ctx context.Context, employeeID uuid.UUID) (*models.Department, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	dept, err := s.repo.DepartmentManagedBy(ctx, employeeID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dept, nil
}

// Update applies a partial update and returns the stored result.
func (s *EmployeeService) Update(ctx context.Context, update *models.EmployeeUpdate) (*models.Employee, error) {
	if update.ID == uuid.Nil {
		return nil, e.InvalidInput("employee", "invalid employee ID")
	}
	if update.Name != nil && *update.Name == "" {
		return nil, e.InvalidInput("employee", "name must not be empty")
	}
	if err := s.repo.UpdateEmployee(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	updated, err := s.repo.GetEmployee(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.EmployeeUpdated, updated.ID, updated)
	return updated, nil
}

// Transfer reassigns the employee to a department (nil detaches) and
// reports whether a manager link was cleared in the process.
func (s *EmployeeService) Transfer(ctx context.Context, employeeID uuid.UUID, departmentID *uuid.UUID) (*validator.TransferReport, error) {
	report, err := s.validator.TransferEmployee(ctx, employeeID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer employee: %w", err)
	}
	if report.ManagerLinkCleared {
		s.logger.Info("manager link cleared on transfer",
			zap.String("employee_id", employeeID.String()),
			zap.String("department_id", report.ClearedDepartmentID.String()),
		)
	}
	s.producer.Produce(events.EmployeeUpdated, employeeID, nil)
	return report, nil
}

// Delete removes the employee. Without cascade, owned payroll or
// enrollment rows block the deletion; with cascade they are deleted
// first.
func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID, cascade bool) (*validator.DeleteEmployeeReport, error) {
	report, err := s.validator.DeleteEmployee(ctx, id, cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to delete employee: %w", err)
	}
	s.producer.Produce(events.EmployeeDeleted, id, nil)
	return report, nil
}

// List returns one page of employees matching the plain filter.
func (s *EmployeeService) List(ctx context.Context, f query.EmployeeFilter, sort query.Sort, page query.Page) (query.Result[models.Employee], error) {
	page = page.Normalize()
	items, total, err := s.repo.ListEmployees(ctx, f, sort, page)
	if err != nil {
		return query.Result[models.Employee]{}, err
	}
	return query.Result[models.Employee]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// Search runs the composed search, folding enrollment criteria
// (benefit id or type, active-as-of instant) into the employee
// predicate.
func (s *EmployeeService) Search(ctx context.Context, search query.EmployeeSearch, sort query.Sort, page query.Page) (query.Result[models.Employee], error) {
	return s.engine.SearchEmployees(ctx, search, sort, page)
}
