package query

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/hr/internal/hr/models"
	"github.com/google/uuid"
)

// Store is the slice of the entity store the engine needs for
// cross-entity composition.
type Store interface {
	ListEmployees(ctx context.Context, f EmployeeFilter, s Sort, p Page) ([]models.Employee, int64, error)
	ListBenefits(ctx context.Context, f BenefitFilter, s Sort, p Page) ([]models.Benefit, int64, error)
	ListPayrolls(ctx context.Context, f PayrollFilter, s Sort, p Page) ([]models.Payroll, int64, error)
	EnrollmentEmployeeIDs(ctx context.Context, f EnrollmentFilter) ([]uuid.UUID, error)
	EnrollmentEmployeeIDsWithMin(ctx context.Context, f EnrollmentFilter, min int) ([]uuid.UUID, error)
	EnrollmentBenefitIDs(ctx context.Context, f EnrollmentFilter) ([]uuid.UUID, error)
	BenefitIDsByType(ctx context.Context, t models.BenefitType) ([]uuid.UUID, error)
	EmployeeIDsInDepartment(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error)
}

// Engine serves the composed, join-like searches: it resolves the
// qualifying id set on the secondary entity and folds it into the
// primary filter as an id-in-set clause.
type Engine struct {
	store Store
}

// NewEngine constructs an Engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// EmployeeSearch extends EmployeeFilter with enrollment-side criteria.
// BenefitID and BenefitType narrow to employees holding a matching
// benefit enrollment active at ActiveOn (defaults to now).
// MinBenefits narrows to employees enrolled in at least that many
// distinct benefits, over their whole enrollment history.
type EmployeeSearch struct {
	EmployeeFilter
	BenefitID   *uuid.UUID
	BenefitType models.BenefitType
	ActiveOn    *time.Time
	MinBenefits int
}

// SearchEmployees runs an employee query, folding in enrollment
// criteria when present. An empty qualifying id set short-circuits to
// an empty page with total 0.
func (e *Engine) SearchEmployees(ctx context.Context, search EmployeeSearch, sort Sort, page Page) (Result[models.Employee], error) {
	page = page.Normalize()
	filter := search.EmployeeFilter

	if search.BenefitID != nil || search.BenefitType != "" {
		ef := EnrollmentFilter{BenefitID: search.BenefitID, ActiveOn: search.ActiveOn}
		if ef.ActiveOn == nil {
			now := time.Now()
			ef.ActiveOn = &now
		}
		if search.BenefitType != "" {
			benefitIDs, err := e.store.BenefitIDsByType(ctx, search.BenefitType)
			if err != nil {
				return Result[models.Employee]{}, fmt.Errorf("resolving benefit ids: %w", err)
			}
			if len(benefitIDs) == 0 {
				return Result[models.Employee]{Items: []models.Employee{}, Offset: page.Offset, Limit: page.Limit}, nil
			}
			ef.BenefitIDs = benefitIDs
		}
		employeeIDs, err := e.store.EnrollmentEmployeeIDs(ctx, ef)
		if err != nil {
			return Result[models.Employee]{}, fmt.Errorf("resolving enrolled employees: %w", err)
		}
		if len(employeeIDs) == 0 {
			return Result[models.Employee]{Items: []models.Employee{}, Offset: page.Offset, Limit: page.Limit}, nil
		}
		filter.IDs = intersect(filter.IDs, employeeIDs)
	}

	if search.MinBenefits > 0 {
		employeeIDs, err := e.store.EnrollmentEmployeeIDsWithMin(ctx, EnrollmentFilter{}, search.MinBenefits)
		if err != nil {
			return Result[models.Employee]{}, fmt.Errorf("resolving benefit counts: %w", err)
		}
		if len(employeeIDs) == 0 {
			return Result[models.Employee]{Items: []models.Employee{}, Offset: page.Offset, Limit: page.Limit}, nil
		}
		filter.IDs = intersect(filter.IDs, employeeIDs)
	}

	items, total, err := e.store.ListEmployees(ctx, filter, sort, page)
	if err != nil {
		return Result[models.Employee]{}, err
	}
	return Result[models.Employee]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// PayrollSearch extends PayrollFilter with a department criterion:
// payroll entries of every employee in that department.
type PayrollSearch struct {
	PayrollFilter
	DepartmentID *uuid.UUID
}

// SearchPayrolls runs a payroll query, resolving a department
// criterion into the employee id set first.
func (e *Engine) SearchPayrolls(ctx context.Context, search PayrollSearch, sort Sort, page Page) (Result[models.Payroll], error) {
	page = page.Normalize()
	filter := search.PayrollFilter

	if search.DepartmentID != nil {
		employeeIDs, err := e.store.EmployeeIDsInDepartment(ctx, *search.DepartmentID)
		if err != nil {
			return Result[models.Payroll]{}, fmt.Errorf("resolving department employees: %w", err)
		}
		if len(employeeIDs) == 0 {
			return Result[models.Payroll]{Items: []models.Payroll{}, Offset: page.Offset, Limit: page.Limit}, nil
		}
		filter.EmployeeIDs = intersect(filter.EmployeeIDs, employeeIDs)
	}

	items, total, err := e.store.ListPayrolls(ctx, filter, sort, page)
	if err != nil {
		return Result[models.Payroll]{}, err
	}
	return Result[models.Payroll]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// DepartmentBenefits returns the benefits the department's employees
// are or were enrolled in.
func (e *Engine) DepartmentBenefits(ctx context.Context, departmentID uuid.UUID, sort Sort, page Page) (Result[models.Benefit], error) {
	page = page.Normalize()
	employeeIDs, err := e.store.EmployeeIDsInDepartment(ctx, departmentID)
	if err != nil {
		return Result[models.Benefit]{}, fmt.Errorf("resolving department employees: %w", err)
	}
	if len(employeeIDs) == 0 {
		return Result[models.Benefit]{Items: []models.Benefit{}, Offset: page.Offset, Limit: page.Limit}, nil
	}
	benefitIDs, err := e.store.EnrollmentBenefitIDs(ctx, EnrollmentFilter{EmployeeIDs: employeeIDs})
	if err != nil {
		return Result[models.Benefit]{}, fmt.Errorf("resolving enrollments: %w", err)
	}
	if len(benefitIDs) == 0 {
		return Result[models.Benefit]{Items: []models.Benefit{}, Offset: page.Offset, Limit: page.Limit}, nil
	}
	items, total, err := e.store.ListBenefits(ctx, BenefitFilter{IDs: benefitIDs}, sort, page)
	if err != nil {
		return Result[models.Benefit]{}, err
	}
	return Result[models.Benefit]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// ActiveBenefits returns the active benefits an employee is enrolled
// in as of the given instant.
func (e *Engine) ActiveBenefits(ctx context.Context, employeeID uuid.UUID, asOf time.Time, sort Sort, page Page) (Result[models.Benefit], error) {
	page = page.Normalize()
	benefitIDs, err := e.store.EnrollmentBenefitIDs(ctx, EnrollmentFilter{
		EmployeeID: &employeeID,
		ActiveOn:   &asOf,
	})
	if err != nil {
		return Result[models.Benefit]{}, fmt.Errorf("resolving enrollments: %w", err)
	}
	if len(benefitIDs) == 0 {
		return Result[models.Benefit]{Items: []models.Benefit{}, Offset: page.Offset, Limit: page.Limit}, nil
	}
	active := true
	items, total, err := e.store.ListBenefits(ctx, BenefitFilter{IDs: benefitIDs, Active: &active}, sort, page)
	if err != nil {
		return Result[models.Benefit]{}, err
	}
	return Result[models.Benefit]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// intersect keeps the ids present in both sets; a nil base means
// unconstrained, so the overlay wins.
func intersect(base, overlay []uuid.UUID) []uuid.UUID {
	if base == nil {
		return overlay
	}
	seen := make(map[uuid.UUID]bool, len(overlay))
	for _, id := range overlay {
		seen[id] = true
	}
	out := make([]uuid.UUID, 0, len(base))
	for _, id := range base {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}
