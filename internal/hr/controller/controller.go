// Package controller implements the domain service layer: one service
// per aggregate, each fixing the call order between the relationship
// validator, the temporal enrollment manager, the query engine, and
// the entity store. No business rule lives here that the lower layers
// do not already own; the services translate and contextualize their
// failures and emit change events after successful mutations.
package controller

import (
	"context"

	"github.com/gartstein/hr/internal/hr/events"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// EventProducer publishes entity-change events after mutations.
type EventProducer interface {
	Produce(eventType events.EventType, id uuid.UUID, payload interface{})
}

// Repository defines the storage interface the services call
// directly. Relational delete paths and link mutations go through the
// validator instead.
type Repository interface {
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	UpdateDepartment(ctx context.Context, update *models.DepartmentUpdate) error
	ListDepartments(ctx context.Context, f query.DepartmentFilter, s query.Sort, p query.Page) ([]models.Department, int64, error)

	CreateEmployee(ctx context.Context, emp *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error
	ListEmployees(ctx context.Context, f query.EmployeeFilter, s query.Sort, p query.Page) ([]models.Employee, int64, error)
	DepartmentManagedBy(ctx context.Context, employeeID uuid.UUID) (*models.Department, error)

	CreatePayroll(ctx context.Context, p *models.Payroll) error
	GetPayroll(ctx context.Context, id uuid.UUID) (*models.Payroll, error)
	UpdatePayroll(ctx context.Context, update *models.PayrollUpdate) error
	DeletePayroll(ctx context.Context, id uuid.UUID) error
	ListPayrolls(ctx context.Context, f query.PayrollFilter, s query.Sort, p query.Page) ([]models.Payroll, int64, error)

	CreateBenefit(ctx context.Context, b *models.Benefit) error
	GetBenefit(ctx context.Context, id uuid.UUID) (*models.Benefit, error)
	UpdateBenefit(ctx context.Context, update *models.BenefitUpdate) error
	ListBenefits(ctx context.Context, f query.BenefitFilter, s query.Sort, p query.Page) ([]models.Benefit, int64, error)

	CreateEnrollment(ctx context.Context, en *models.EmployeeBenefit) error
	GetEnrollment(ctx context.Context, id uuid.UUID) (*models.EmployeeBenefit, error)
	UpdateEnrollment(ctx context.Context, update *models.EmployeeBenefitUpdate) error
	DeleteEnrollment(ctx context.Context, id uuid.UUID) error
	ListEnrollments(ctx context.Context, f query.EnrollmentFilter, s query.Sort, p query.Page) ([]models.EmployeeBenefit, int64, error)
}
