package db

import (
	"context"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// CreatePayroll inserts a payroll entry; a second entry for the same
// (employee, reference month) pair surfaces as DuplicateKey.
func (r *Repository) CreatePayroll(ctx context.Context, p *models.Payroll) error {
	return translate("payroll", "(employee_id, reference_month)", r.db.WithContext(ctx).Create(p).Error)
}

// GetPayroll fetches a payroll entry by id.
func (r *Repository) GetPayroll(ctx context.Context, id uuid.UUID) (*models.Payroll, error) {
	var p models.Payroll
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate("payroll", "", err)
	}
	return &p, nil
}

// UpdatePayroll applies a partial update to the monetary components.
func (r *Repository) UpdatePayroll(ctx context.Context, update *models.PayrollUpdate) error {
	patch := map[string]interface{}{}
	if update.GrossSalary != nil {
		patch["gross_salary"] = *update.GrossSalary
	}
	if update.Deductions != nil {
		patch["deductions"] = *update.Deductions
	}
	if update.Discount != nil {
		patch["discount"] = *update.Discount
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Payroll{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return translate("payroll", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("payroll", update.ID.String())
	}
	return nil
}

// DeletePayroll removes a payroll entry.
func (r *Repository) DeletePayroll(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Payroll{}, "id = ?", id)
	if result.Error != nil {
		return translate("payroll", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("payroll", id.String())
	}
	return nil
}

// ListPayrolls returns one page of matching payroll entries plus the
// total match count.
func (r *Repository) ListPayrolls(ctx context.Context, f query.PayrollFilter, s query.Sort, p query.Page) ([]models.Payroll, int64, error) {
	order, err := s.OrderClause(query.PayrollSortFields)
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int64
	if err := f.Apply(r.db.WithContext(ctx).Model(&models.Payroll{})).Count(&total).Error; err != nil {
		return nil, 0, translate("payroll", "", err)
	}
	items := []models.Payroll{}
	tx := f.Apply(r.db.WithContext(ctx).Model(&models.Payroll{})).Order(order)
	if err := p.Apply(tx).Find(&items).Error; err != nil {
		return nil, 0, translate("payroll", "", err)
	}
	return items, total, nil
}

// CountPayrollsForEmployee counts payroll rows owned by the employee.
func (r *Repository) CountPayrollsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payroll{}).
		Where("employee_id = ?", employeeID).
		Count(&count).Error
	return count, translate("payroll", "", err)
}

// DeletePayrollsForEmployee removes every payroll row owned by the
// employee (cascade-delete path).
func (r *Repository) DeletePayrollsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Payroll{}, "employee_id = ?", employeeID)
	return result.RowsAffected, translate("payroll", "", result.Error)
}
