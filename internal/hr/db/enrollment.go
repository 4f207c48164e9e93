package db

import (
	"context"
	"time"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// CreateEnrollment inserts an employee-benefit enrollment. Interval
// validity is the temporal manager's concern, checked before this
// call.
func (r *Repository) CreateEnrollment(ctx context.Context, en *models.EmployeeBenefit) error {
	return translate("enrollment", "", r.db.WithContext(ctx).Create(en).Error)
}

// GetEnrollment fetches an enrollment by id.
func (r *Repository) GetEnrollment(ctx context.Context, id uuid.UUID) (*models.EmployeeBenefit, error) {
	var en models.EmployeeBenefit
	if err := r.db.WithContext(ctx).First(&en, "id = ?", id).Error; err != nil {
		return nil, translate("enrollment", "", err)
	}
	return &en, nil
}

// UpdateEnrollment applies a partial update to the interval and the
// custom amount.
func (r *Repository) UpdateEnrollment(ctx context.Context, update *models.EmployeeBenefitUpdate) error {
	patch := map[string]interface{}{}
	if update.StartDate != nil {
		patch["start_date"] = *update.StartDate
	}
	if update.ClearEndDate {
		patch["end_date"] = nil
	} else if update.EndDate != nil {
		patch["end_date"] = *update.EndDate
	}
	if update.ClearCustomAmount {
		patch["custom_amount"] = nil
	} else if update.CustomAmount != nil {
		patch["custom_amount"] = *update.CustomAmount
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.EmployeeBenefit{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return translate("enrollment", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("enrollment", update.ID.String())
	}
	return nil
}

// DeleteEnrollment physically removes an enrollment (administrative
// path; normal termination end-dates instead).
func (r *Repository) DeleteEnrollment(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.EmployeeBenefit{}, "id = ?", id)
	if result.Error != nil {
		return translate("enrollment", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("enrollment", id.String())
	}
	return nil
}

// ListEnrollments returns one page of matching enrollments plus the
// total match count.
func (r *Repository) ListEnrollments(ctx context.Context, f query.EnrollmentFilter, s query.Sort, p query.Page) ([]models.EmployeeBenefit, int64, error) {
	order, err := s.OrderClause(query.EnrollmentSortFields)
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int64
	if err := f.Apply(r.db.WithContext(ctx).Model(&models.EmployeeBenefit{})).Count(&total).Error; err != nil {
		return nil, 0, translate("enrollment", "", err)
	}
	items := []models.EmployeeBenefit{}
	tx := f.Apply(r.db.WithContext(ctx).Model(&models.EmployeeBenefit{})).Order(order)
	if err := p.Apply(tx).Find(&items).Error; err != nil {
		return nil, 0, translate("enrollment", "", err)
	}
	return items, total, nil
}

// EnrollmentsForPair lists every enrollment of one (employee, benefit)
// pair, oldest interval first. The overlap check scans this set.
func (r *Repository) EnrollmentsForPair(ctx context.Context, employeeID, benefitID uuid.UUID) ([]models.EmployeeBenefit, error) {
	var items []models.EmployeeBenefit
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND benefit_id = ?", employeeID, benefitID).
		Order("start_date ASC").
		Find(&items).Error
	return items, translate("enrollment", "", err)
}

// EnrollmentEmployeeIDs lists the distinct employee ids matching the
// filter (secondary-entity resolution for cross-entity searches).
func (r *Repository) EnrollmentEmployeeIDs(ctx context.Context, f query.EnrollmentFilter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := f.Apply(r.db.WithContext(ctx).Model(&models.EmployeeBenefit{})).
		Distinct().
		Pluck("employee_id", &ids).Error
	return ids, translate("enrollment", "", err)
}

// EnrollmentBenefitIDs lists the distinct benefit ids matching the
// filter.
func (r *Repository) EnrollmentBenefitIDs(ctx context.Context, f query.EnrollmentFilter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := f.Apply(r.db.WithContext(ctx).Model(&models.EmployeeBenefit{})).
		Distinct().
		Pluck("benefit_id", &ids).Error
	return ids, translate("enrollment", "", err)
}

// EnrollmentEmployeeIDsWithMin lists the employee ids holding at
// least min distinct enrolled benefits among the rows matching the
// filter.
func (r *Repository) EnrollmentEmployeeIDsWithMin(ctx context.Context, f query.EnrollmentFilter, min int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := f.Apply(r.db.WithContext(ctx).Model(&models.EmployeeBenefit{})).
		Group("employee_id").
		Having("COUNT(DISTINCT benefit_id) >= ?", min).
		Pluck("employee_id", &ids).Error
	return ids, translate("enrollment", "", err)
}

// CountActiveEnrollmentsForBenefit counts enrollments of the benefit
// whose interval is active at the given instant (blocking check for
// benefit deletion).
func (r *Repository) CountActiveEnrollmentsForBenefit(ctx context.Context, benefitID uuid.UUID, asOf time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmployeeBenefit{}).
		Where("benefit_id = ?", benefitID).
		Where("start_date <= ? AND (end_date IS NULL OR end_date > ?)", asOf, asOf).
		Count(&count).Error
	return count, translate("enrollment", "", err)
}

// CountEnrollmentsForEmployee counts enrollment rows referencing the
// employee.
func (r *Repository) CountEnrollmentsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmployeeBenefit{}).
		Where("employee_id = ?", employeeID).
		Count(&count).Error
	return count, translate("enrollment", "", err)
}

// DeleteEnrollmentsForEmployee removes every enrollment of the
// employee (cascade-delete path).
func (r *Repository) DeleteEnrollmentsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.EmployeeBenefit{}, "employee_id = ?", employeeID)
	return result.RowsAffected, translate("enrollment", "", result.Error)
}
