package db

import (
	"context"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/google/uuid"
)

// CreateBenefit inserts a benefit; duplicate names surface as
// DuplicateKey.
func (r *Repository) CreateBenefit(ctx context.Context, b *models.Benefit) error {
	return translate("benefit", "name", r.db.WithContext(ctx).Create(b).Error)
}

// GetBenefit fetches a live benefit by id. Tombstoned (soft-deleted)
// benefits are not visible here.
func (r *Repository) GetBenefit(ctx context.Context, id uuid.UUID) (*models.Benefit, error) {
	var b models.Benefit
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate("benefit", "", err)
	}
	return &b, nil
}

// GetBenefitUnscoped fetches a benefit even after deletion, so
// historical enrollments can still resolve their amounts.
func (r *Repository) GetBenefitUnscoped(ctx context.Context, id uuid.UUID) (*models.Benefit, error) {
	var b models.Benefit
	if err := r.db.WithContext(ctx).Unscoped().First(&b, "id = ?", id).Error; err != nil {
		return nil, translate("benefit", "", err)
	}
	return &b, nil
}

// UpdateBenefit applies a partial update.
func (r *Repository) UpdateBenefit(ctx context.Context, update *models.BenefitUpdate) error {
	patch := map[string]interface{}{}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Description != nil {
		patch["description"] = *update.Description
	}
	if update.Value != nil {
		patch["value"] = *update.Value
	}
	if update.Type != nil {
		patch["type"] = string(*update.Type)
	}
	if update.Active != nil {
		patch["active"] = *update.Active
	}
	if len(patch) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Benefit{}).
		Where("id = ?", update.ID).
		Updates(patch)
	if result.Error != nil {
		return translate("benefit", "name", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("benefit", update.ID.String())
	}
	return nil
}

// DeleteBenefit tombstones a benefit (soft delete). Historical
// enrollments keep resolving it through GetBenefitUnscoped.
func (r *Repository) DeleteBenefit(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Benefit{}, "id = ?", id)
	if result.Error != nil {
		return translate("benefit", "", result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound("benefit", id.String())
	}
	return nil
}

// ListBenefits returns one page of matching benefits plus the total
// match count.
func (r *Repository) ListBenefits(ctx context.Context, f query.BenefitFilter, s query.Sort, p query.Page) ([]models.Benefit, int64, error) {
	order, err := s.OrderClause(query.BenefitSortFields)
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int64
	if err := f.Apply(r.db.WithContext(ctx).Model(&models.Benefit{})).Count(&total).Error; err != nil {
		return nil, 0, translate("benefit", "", err)
	}
	items := []models.Benefit{}
	tx := f.Apply(r.db.WithContext(ctx).Model(&models.Benefit{})).Order(order)
	if err := p.Apply(tx).Find(&items).Error; err != nil {
		return nil, 0, translate("benefit", "", err)
	}
	return items, total, nil
}

// BenefitIDsByType lists the ids of live benefits in the category.
func (r *Repository) BenefitIDsByType(ctx context.Context, t models.BenefitType) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Benefit{}).
		Where("type = ?", string(t)).
		Pluck("id", &ids).Error
	return ids, translate("benefit", "", err)
}
