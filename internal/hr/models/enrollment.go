package models

import (
	"time"

	"github.com/google/uuid"
)

// EmployeeBenefit is the N:N association between employees and
// benefits, with temporal validity. Intervals are half-open
// [StartDate, EndDate); a nil EndDate means the enrollment is
// open-ended. For one (employee, benefit) pair the stored intervals
// are pairwise non-overlapping.
type EmployeeBenefit struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeID   uuid.UUID  `gorm:"type:uuid;index:idx_enrollment_pair"`
	BenefitID    uuid.UUID  `gorm:"type:uuid;index:idx_enrollment_pair"`
	StartDate    time.Time
	EndDate      *time.Time
	CustomAmount *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeBenefitUpdate represents the patchable fields of an
// enrollment. The referenced pair is immutable; re-pairing is a delete
// plus a fresh assignment. The Clear flags distinguish "set to null"
// from "leave unchanged" for the nullable fields.
type EmployeeBenefitUpdate struct {
	ID                uuid.UUID
	StartDate         *time.Time
	EndDate           *time.Time
	ClearEndDate      bool
	CustomAmount      *float64
	ClearCustomAmount bool
}
