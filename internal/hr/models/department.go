// Package models defines the core domain entities of the HR system:
// departments, employees, payroll entries, benefits, and the
// employee-benefit enrollment association. The structs double as the
// persisted GORM models; uniqueness rules live in the schema tags.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Department groups employees and optionally carries a manager link.
// ManagerID is unique so a single employee can manage at most one
// department, while the single column guarantees at most one manager
// per department (1:1 enforced in both directions).
type Department struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"size:100;uniqueIndex"`
	Location    string     `gorm:"size:200"`
	Description string     `gorm:"size:3000"`
	Extension   string     `gorm:"size:20"`
	ManagerID   *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DepartmentUpdate represents the fields that can be updated for a
// Department. Pointer types allow partial updates; ManagerID is managed
// through the assignment operations, never patched directly.
type DepartmentUpdate struct {
	ID          uuid.UUID
	Name        *string
	Location    *string
	Description *string
	Extension   *string
}
