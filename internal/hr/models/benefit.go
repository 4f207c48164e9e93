package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/plugin/soft_delete"
)

// BenefitType categorizes a benefit.
type BenefitType string

const (
	HealthPlan    BenefitType = "HEALTH"
	MealVoucher   BenefitType = "MEAL"
	Transport     BenefitType = "TRANSPORT"
	Education     BenefitType = "EDUCATION"
	LifeInsurance BenefitType = "LIFE_INSURANCE"
	OtherBenefit  BenefitType = "OTHER"
)

// ValidBenefitType reports whether t is one of the known categories.
func ValidBenefitType(t BenefitType) bool {
	switch t {
	case HealthPlan, MealVoucher, Transport, Education, LifeInsurance, OtherBenefit:
		return true
	}
	return false
}

// Benefit is a perk employees can be enrolled in. Deleting a benefit
// that still has historical enrollments soft-deletes the row, so those
// enrollments keep resolving to a tombstoned record instead of a
// dangling reference. The name index includes the deletion flag, so
// only live rows (deleted_at = 0) compete for a name and a tombstoned
// name can be reused.
type Benefit struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name        string      `gorm:"size:100;uniqueIndex:idx_benefit_name"`
	Description string      `gorm:"size:3000"`
	Value       float64     `gorm:"check:value >= 0"`
	Type        BenefitType `gorm:"size:20;index"`
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   soft_delete.DeletedAt `gorm:"softDelete:milli;uniqueIndex:idx_benefit_name"`
}

// BenefitUpdate represents the patchable fields of a Benefit.
type BenefitUpdate struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Value       *float64
	Type        *BenefitType
	Active      *bool
}
