package db

import (
	"context"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// CreateEmployee inserts an employee; duplicate tax ids surface as
// DuplicateKey.
func (r *Repository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	return translate("employee", "tax_id", r.db.WithContext(ctx).Create(emp).Error)
}

// GetEmployee fetches an employee by id.
func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var emp models.Employee
	if err := r.db.WithContext(ctx).First(&emp, "id = ?", id).Error; err != nil {
		return nil, translate("employee", "", err)
	}
	return &emp, nil
}

// UpdateEmployee applies a partial update.
func (r *Repository) UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error {
	patch := map[string]interface{}{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Position != nil {
		patch["position"] = *update.Position
	}
	if update.AdmissionDate != nil {
		patch["admission_date"] = *update.AdmissionDate
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return translate("employee", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("employee", update.ID.String())
	}
	return nil
}

// SetEmployeeDepartment reassigns (or clears, with nil) the
// employee's department reference.
func (r *Repository) SetEmployeeDepartment(ctx context.Context, id uuid.UUID, departmentID *uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", id).
		Update("department_id", departmentID)
	if result.Error != nil {
		return translate("employee", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("employee", id.String())
	}
	return nil
}

// DeleteEmployee removes an employee row. Owned payroll and
// enrollment rows are resolved by the validator before this call.
func (r *Repository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, "id = ?", id)
	if result.Error != nil {
		return translate("employee", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("employee", id.String())
	}
	return nil
}

// ListEmployees returns one page of matching employees plus the total
// match count.
func (r *Repository) ListEmployees(ctx context.Context, f query.EmployeeFilter, s query.Sort, p query.Page) ([]models.Employee, int64, error) {
	order, err := s.OrderClause(query.EmployeeSortFields)
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int64
	if err := f.Apply(r.db.WithContext(ctx).Model(&models.Employee{})).Count(&total).Error; err != nil {
		return nil, 0, translate("employee", "", err)
	}
	items := []models.Employee{}
	tx := f.Apply(r.db.WithContext(ctx).Model(&models.Employee{})).Order(order)
	if err := p.Apply(tx).Find(&items).Error; err != nil {
		return nil, 0, translate("employee", "", err)
	}
	return items, total, nil
}

// CountEmployeesInDepartment counts employees referencing the
// department.
func (r *Repository) CountEmployeesInDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, translate("employee", "", err)
}

// EmployeeIDsInDepartment lists the ids of the department's employees.
func (r *Repository) EmployeeIDsInDepartment(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("department_id = ?", departmentID).
		Pluck("id", &ids).Error
	return ids, translate("employee", "", err)
}

// DetachEmployeesFromDepartment nulls the department reference of
// every employee in the department and returns how many were touched.
func (r *Repository) DetachEmployeesFromDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("department_id = ?", departmentID).
		Update("department_id", nil)
	return result.RowsAffected, translate("employee", "", result.Error)
}
