package models

import (
	"time"

	"github.com/google/uuid"
)

// Payroll is one salary entry for one employee and reference month.
// The (employee, month) pair is unique. Net salary is derived, never
// stored, so gross-component corrections propagate automatically.
type Payroll struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_payroll_employee_month"`
	GrossSalary    float64
	Deductions     float64
	Discount       float64
	ReferenceMonth Month `gorm:"size:7;uniqueIndex:idx_payroll_employee_month"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NetSalary computes the amount actually paid out.
func (p *Payroll) NetSalary() float64 {
	return p.GrossSalary - p.Deductions - p.Discount
}

// PayrollUpdate represents the patchable monetary fields of a Payroll.
// Employee and reference month are immutable once created.
type PayrollUpdate struct {
	ID          uuid.UUID
	GrossSalary *float64
	Deductions  *float64
	Discount    *float64
}
