package db

import (
	"context"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// CreateDepartment inserts a department; duplicate names surface as
// DuplicateKey.
func (r *Repository) CreateDepartment(ctx context.Context, dept *models.Department) error {
	return translate("department", "name", r.db.WithContext(ctx).Create(dept).Error)
}

// GetDepartment fetches a department by id.
func (r *Repository) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var dept models.Department
	if err := r.db.WithContext(ctx).First(&dept, "id = ?", id).Error; err != nil {
		return nil, translate("department", "", err)
	}
	return &dept, nil
}

// UpdateDepartment applies a partial update.
func (r *Repository) UpdateDepartment(ctx context.Context, update *models.DepartmentUpdate) error {
	patch := map[string]interface{}{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Location != nil {
		patch["location"] = *update.Location
	}
	if update.Description != nil {
		patch["description"] = *update.Description
	}
	if update.Extension != nil {
		patch["extension"] = *update.Extension
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Department{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return translate("department", "name", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("department", update.ID.String())
	}
	return nil
}

// DeleteDepartment removes a department row. Referencing employees
// are the validator's concern, resolved before this call.
func (r *Repository) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Department{}, "id = ?", id)
	if result.Error != nil {
		return translate("department", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("department", id.String())
	}
	return nil
}

// ListDepartments returns one page of matching departments plus the
// total match count.
func (r *Repository) ListDepartments(ctx context.Context, f query.DepartmentFilter, s query.Sort, p query.Page) ([]models.Department, int64, error) {
	order, err := s.OrderClause(query.DepartmentSortFields)
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int64
	if err := f.Apply(r.db.WithContext(ctx).Model(&models.Department{})).Count(&total).Error; err != nil {
		return nil, 0, translate("department", "", err)
	}
	items := []models.Department{}
	tx := f.Apply(r.db.WithContext(ctx).Model(&models.Department{})).Order(order)
	if err := p.Apply(tx).Find(&items).Error; err != nil {
		return nil, 0, translate("department", "", err)
	}
	return items, total, nil
}

// SetDepartmentManager writes the manager link; nil clears it. A
// violated manager uniqueness index surfaces as DuplicateKey.
func (r *Repository) SetDepartmentManager(ctx context.Context, id uuid.UUID, managerID *uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Department{}).
		Where("id = ?", id).
		Update("manager_id", managerID)
	if result.Error != nil {
		return translate("department", "manager_id", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("department", id.String())
	}
	return nil
}

// DepartmentManagedBy returns the department managed by the given
// employee, or NotFound.
func (r *Repository) DepartmentManagedBy(ctx context.Context, employeeID uuid.UUID) (*models.Department, error) {
	var dept models.Department
	if err := r.db.WithContext(ctx).First(&dept, "manager_id = ?", employeeID).Error; err != nil {
		return nil, translate("department", "", err)
	}
	return &dept, nil
}
