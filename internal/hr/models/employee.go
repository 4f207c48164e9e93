package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a company worker. TaxID is the national tax identifier
// and is unique across all employees. DepartmentID is nullable: an
// employee may be unassigned.
type Employee struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name          string     `gorm:"size:200"`
	TaxID         string     `gorm:"size:20;uniqueIndex"`
	Position      string     `gorm:"size:100"`
	AdmissionDate time.Time
	DepartmentID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EmployeeUpdate represents the patchable fields of an Employee.
// Department reassignment is not a plain patch: it goes through the
// transfer operation so the manager-link side effect is handled.
type EmployeeUpdate struct {
	ID            uuid.UUID
	Name          *string
	Position      *string
	AdmissionDate *time.Time
}
