package query

import (
	"strings"
	"time"

	"github.com/gartstein/hr/internal/hr/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sortable field allowlists, keyed by column name.
var (
	DepartmentSortFields = map[string]bool{"name": true, "location": true, "created_at": true}
	EmployeeSortFields   = map[string]bool{"name": true, "position": true, "admission_date": true, "created_at": true}
	PayrollSortFields    = map[string]bool{"reference_month": true, "gross_salary": true, "created_at": true}
	BenefitSortFields    = map[string]bool{"name": true, "value": true, "type": true, "created_at": true}
	EnrollmentSortFields = map[string]bool{"start_date": true, "end_date": true, "created_at": true}
)

// containsInsensitive builds a case-insensitive substring predicate.
func containsInsensitive(tx *gorm.DB, column, needle string) *gorm.DB {
	return tx.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(needle)+"%")
}

// DepartmentFilter selects departments. Zero-value fields are ignored.
type DepartmentFilter struct {
	NameContains string
	Location     string
}

// Apply folds the filter into the query.
func (f DepartmentFilter) Apply(tx *gorm.DB) *gorm.DB {
	if f.NameContains != "" {
		tx = containsInsensitive(tx, "name", f.NameContains)
	}
	if f.Location != "" {
		tx = containsInsensitive(tx, "location", f.Location)
	}
	return tx
}

// EmployeeFilter selects employees. IDs, when non-nil, restricts the
// result to that id set; the cross-entity engine uses it to fold in
// ids resolved on a secondary entity.
type EmployeeFilter struct {
	NameContains string
	TaxID        string
	DepartmentID *uuid.UUID
	AdmittedFrom *time.Time
	AdmittedTo   *time.Time
	IDs          []uuid.UUID
}

func (f EmployeeFilter) Apply(tx *gorm.DB) *gorm.DB {
	if f.NameContains != "" {
		tx = containsInsensitive(tx, "name", f.NameContains)
	}
	if f.TaxID != "" {
		tx = tx.Where("tax_id = ?", f.TaxID)
	}
	if f.DepartmentID != nil {
		tx = tx.Where("department_id = ?", *f.DepartmentID)
	}
	if f.AdmittedFrom != nil {
		tx = tx.Where("admission_date >= ?", *f.AdmittedFrom)
	}
	if f.AdmittedTo != nil {
		tx = tx.Where("admission_date < ?", *f.AdmittedTo)
	}
	if f.IDs != nil {
		tx = tx.Where("id IN ?", f.IDs)
	}
	return tx
}

// PayrollFilter selects payroll entries, optionally by employee and
// reference-month range (inclusive on both ends; months compare
// lexicographically). EmployeeIDs carries an id set resolved on a
// secondary entity, the way EmployeeFilter.IDs does.
type PayrollFilter struct {
	EmployeeID  *uuid.UUID
	EmployeeIDs []uuid.UUID
	MonthFrom   models.Month
	MonthTo     models.Month
}

func (f PayrollFilter) Apply(tx *gorm.DB) *gorm.DB {
	if f.EmployeeID != nil {
		tx = tx.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.EmployeeIDs != nil {
		tx = tx.Where("employee_id IN ?", f.EmployeeIDs)
	}
	if f.MonthFrom != "" {
		tx = tx.Where("reference_month >= ?", string(f.MonthFrom))
	}
	if f.MonthTo != "" {
		tx = tx.Where("reference_month <= ?", string(f.MonthTo))
	}
	return tx
}

// BenefitFilter selects benefits by category, active flag, and
// monetary value range (inclusive on both ends).
type BenefitFilter struct {
	NameContains string
	Type         models.BenefitType
	Active       *bool
	MinValue     *float64
	MaxValue     *float64
	IDs          []uuid.UUID
}

func (f BenefitFilter) Apply(tx *gorm.DB) *gorm.DB {
	if f.NameContains != "" {
		tx = containsInsensitive(tx, "name", f.NameContains)
	}
	if f.Type != "" {
		tx = tx.Where("type = ?", string(f.Type))
	}
	if f.Active != nil {
		tx = tx.Where("active = ?", *f.Active)
	}
	if f.MinValue != nil {
		tx = tx.Where("value >= ?", *f.MinValue)
	}
	if f.MaxValue != nil {
		tx = tx.Where("value <= ?", *f.MaxValue)
	}
	if f.IDs != nil {
		tx = tx.Where("id IN ?", f.IDs)
	}
	return tx
}

// EnrollmentFilter selects employee-benefit enrollments. ActiveOn
// keeps rows whose half-open interval contains the given instant.
type EnrollmentFilter struct {
	EmployeeID  *uuid.UUID
	EmployeeIDs []uuid.UUID
	BenefitID   *uuid.UUID
	BenefitIDs  []uuid.UUID
	ActiveOn    *time.Time
}

func (f EnrollmentFilter) Apply(tx *gorm.DB) *gorm.DB {
	if f.EmployeeID != nil {
		tx = tx.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.EmployeeIDs != nil {
		tx = tx.Where("employee_id IN ?", f.EmployeeIDs)
	}
	if f.BenefitID != nil {
		tx = tx.Where("benefit_id = ?", *f.BenefitID)
	}
	if f.BenefitIDs != nil {
		tx = tx.Where("benefit_id IN ?", f.BenefitIDs)
	}
	if f.ActiveOn != nil {
		tx = tx.Where("start_date <= ? AND (end_date IS NULL OR end_date > ?)",
			*f.ActiveOn, *f.ActiveOn)
	}
	return tx
}
