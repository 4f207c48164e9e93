package controller

import (
	"context"
	"fmt"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/hr/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DepartmentService manages departments and the manager 1:1 link.
type DepartmentService struct {
	repo      Repository
	validator *validator.Validator
	producer  EventProducer
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo Repository, v *validator.Validator, producer EventProducer, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		repo:      repo,
		validator: v,
		producer:  producer,
		logger:    logger.Named("department_service"),
	}
}

// Create adds a new department.
func (s *DepartmentService) Create(ctx context.Context, dept *models.Department) (*models.Department, error) {
	if dept.Name == "" {
		return nil, e.InvalidInput("department", "name is required")
	}
	dept.ID = uuid.New()
	dept.ManagerID = nil
	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	s.producer.Produce(events.DepartmentCreated, dept.ID, dept)
	return dept, nil
}

// Get retrieves a department by id.
func (s *DepartmentService) Get(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	return s.repo.GetDepartment(ctx, id)
}

// Update applies a partial update and returns the stored result.
func (s *DepartmentService) Update(ctx context.Context, update *models.DepartmentUpdate) (*models.Department, error) {
	if update.ID == uuid.Nil {
		return nil, e.InvalidInput("department", "invalid department ID")
	}
	if update.Name != nil && *update.Name == "" {
		return nil, e.InvalidInput("department", "name must not be empty")
	}
	if err := s.repo.UpdateDepartment(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	updated, err := s.repo.GetDepartment(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(events.DepartmentUpdated, updated.ID, updated)
	return updated, nil
}

// List returns one page of departments matching the filter.
func (s *DepartmentService) List(ctx context.Context, f query.DepartmentFilter, sort query.Sort, page query.Page) (query.Result[models.Department], error) {
	page = page.Normalize()
	items, total, err := s.repo.ListDepartments(ctx, f, sort, page)
	if err != nil {
		return query.Result[models.Department]{}, err
	}
	return query.Result[models.Department]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// AssignManager links the employee as the department's manager.
func (s *DepartmentService) AssignManager(ctx context.Context, departmentID, employeeID uuid.UUID) error {
	if err := s.validator.AssignManager(ctx, departmentID, employeeID); err != nil {
		return fmt.Errorf("failed to assign manager: %w", err)
	}
	s.logger.Info("manager assigned",
		zap.String("department_id", departmentID.String()),
		zap.String("employee_id", employeeID.String()),
	)
	s.producer.Produce(events.DepartmentUpdated, departmentID, nil)
	return nil
}

// UnassignManager clears the department's manager link.
func (s *DepartmentService) UnassignManager(ctx context.Context, departmentID uuid.UUID) error {
	if err := s.validator.UnassignManager(ctx, departmentID); err != nil {
		return fmt.Errorf("failed to unassign manager: %w", err)
	}
	s.producer.Produce(events.DepartmentUpdated, departmentID, nil)
	return nil
}

// Close deletes the department. Without detach, referencing employees
// block the deletion; with detach they are unassigned first.
func (s *DepartmentService) Close(ctx context.Context, id uuid.UUID, detach bool) (*validator.DeleteDepartmentReport, error) {
	report, err := s.validator.DeleteDepartment(ctx, id, detach)
	if err != nil {
		return nil, fmt.Errorf("failed to delete department: %w", err)
	}
	if report.DetachedEmployees > 0 {
		s.logger.Info("employees detached from closed department",
			zap.String("department_id", id.String()),
			zap.Int64("detached", report.DetachedEmployees),
		)
	}
	s.producer.Produce(events.DepartmentDeleted, id, nil)
	return report, nil
}
