// Package validator enforces cardinality and referential-integrity
// rules: the bidirectional 1:1 manager link, blocking and cascading
// delete paths, and the department-reassignment side effect. Rules
// that can race on the same key are serialized through a keyed mutex
// and re-validated after acquiring it.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/hr/internal/hr/db"
	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/pkg/keylock"
	"github.com/google/uuid"
)

// Store is the slice of the entity store the validator needs. Transact
// runs fn against a transaction-scoped store, committing on nil and
// rolling back on error; multi-row mutations go through it so a
// failure mid-sequence leaves no partial state.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetBenefit(ctx context.Context, id uuid.UUID) (*models.Benefit, error)
	DepartmentManagedBy(ctx context.Context, employeeID uuid.UUID) (*models.Department, error)
	SetDepartmentManager(ctx context.Context, id uuid.UUID, managerID *uuid.UUID) error
	SetEmployeeDepartment(ctx context.Context, id uuid.UUID, departmentID *uuid.UUID) error
	CountEmployeesInDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
	DetachEmployeesFromDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
	CountPayrollsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	DeletePayrollsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	CountEnrollmentsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	DeleteEnrollmentsForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	CountActiveEnrollmentsForBenefit(ctx context.Context, benefitID uuid.UUID, asOf time.Time) (int64, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
	DeleteBenefit(ctx context.Context, id uuid.UUID) error
}

// Validator holds the store and the per-key serialization set.
type Validator struct {
	store Store
	locks *keylock.KeyedMutex
	now   func() time.Time
}

// New constructs a Validator over the given store.
func New(store Store) *Validator {
	return &Validator{store: store, locks: keylock.New(), now: time.Now}
}

type repoStore struct {
	*db.Repository
}

// NewStore adapts a database repository to the validator's store.
func NewStore(r *db.Repository) Store {
	return repoStore{r}
}

func (s repoStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	return s.WithTransaction(ctx, func(tx *db.Repository) error {
		return fn(repoStore{tx})
	})
}

func departmentKey(id uuid.UUID) string { return "department:" + id.String() }
func employeeKey(id uuid.UUID) string   { return "employee:" + id.String() }
func benefitKey(id uuid.UUID) string    { return "benefit:" + id.String() }

// TransferReport describes the side effects of a department
// reassignment.
type TransferReport struct {
	PreviousDepartmentID *uuid.UUID
	// ManagerLinkCleared is set when the employee managed a department
	// and the reassignment forced that link to be dropped.
	ManagerLinkCleared  bool
	ClearedDepartmentID *uuid.UUID
}

// DeleteDepartmentReport describes the outcome of a department
// deletion in detach mode.
type DeleteDepartmentReport struct {
	DetachedEmployees int64
}

// DeleteEmployeeReport describes the rows removed by a cascading
// employee deletion.
type DeleteEmployeeReport struct {
	DeletedPayrolls    int64
	DeletedEnrollments int64
}

// AssignManager links an employee as the department's manager,
// enforcing the 1:1 rule in both directions. Serialized on the
// department key.
func (v *Validator) AssignManager(ctx context.Context, departmentID, employeeID uuid.UUID) error {
	key := departmentKey(departmentID)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	dept, err := v.store.GetDepartment(ctx, departmentID)
	if err != nil {
		return err
	}
	if _, err := v.store.GetEmployee(ctx, employeeID); err != nil {
		return err
	}
	if dept.ManagerID != nil && *dept.ManagerID != employeeID {
		return e.Conflict("department", departmentID.String(), "department already has a manager")
	}
	if managed, err := v.store.DepartmentManagedBy(ctx, employeeID); err == nil && managed.ID != departmentID {
		return e.Conflict("employee", employeeID.String(), "employee already manages another department")
	} else if err != nil && !errors.Is(err, e.ErrNotFound) {
		return err
	}

	if err := v.store.SetDepartmentManager(ctx, departmentID, &employeeID); err != nil {
		// The unique index on manager_id catches the race the
		// pre-check missed; report it as the cardinality rule.
		if errors.Is(err, e.ErrDuplicateKey) {
			return e.Conflict("employee", employeeID.String(), "employee already manages another department")
		}
		return err
	}
	return nil
}

// UnassignManager clears the department's manager link. Clearing an
// already-empty link is a no-op.
func (v *Validator) UnassignManager(ctx context.Context, departmentID uuid.UUID) error {
	key := departmentKey(departmentID)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	if _, err := v.store.GetDepartment(ctx, departmentID); err != nil {
		return err
	}
	return v.store.SetDepartmentManager(ctx, departmentID, nil)
}

// TransferEmployee reassigns the employee's department reference (nil
// detaches). Reassignment is always allowed, but when the employee
// manages a department other than the target, the manager link is
// cleared and reported.
func (v *Validator) TransferEmployee(ctx context.Context, employeeID uuid.UUID, departmentID *uuid.UUID) (*TransferReport, error) {
	key := employeeKey(employeeID)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	emp, err := v.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if departmentID != nil {
		if _, err := v.store.GetDepartment(ctx, *departmentID); err != nil {
			return nil, err
		}
	}

	report := &TransferReport{PreviousDepartmentID: emp.DepartmentID}

	managed, err := v.store.DepartmentManagedBy(ctx, employeeID)
	if err != nil && !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}
	clearLink := managed != nil && (departmentID == nil || managed.ID != *departmentID)

	err = v.store.Transact(ctx, func(tx Store) error {
		if clearLink {
			if err := tx.SetDepartmentManager(ctx, managed.ID, nil); err != nil {
				return fmt.Errorf("clearing manager link: %w", err)
			}
		}
		return tx.SetEmployeeDepartment(ctx, employeeID, departmentID)
	})
	if err != nil {
		return nil, err
	}
	if clearLink {
		report.ManagerLinkCleared = true
		report.ClearedDepartmentID = &managed.ID
	}
	return report, nil
}

// DeleteDepartment removes a department. With detach unset, any
// referencing employee blocks the deletion with Conflict; with detach
// set, every referencing employee has its department reference
// nulled. Employees are never deleted on this path.
func (v *Validator) DeleteDepartment(ctx context.Context, id uuid.UUID, detach bool) (*DeleteDepartmentReport, error) {
	key := departmentKey(id)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	if _, err := v.store.GetDepartment(ctx, id); err != nil {
		return nil, err
	}
	count, err := v.store.CountEmployeesInDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	if count > 0 && !detach {
		return nil, e.Conflict("department", id.String(),
			fmt.Sprintf("%d employees still reference this department", count))
	}

	report := &DeleteDepartmentReport{}
	err = v.store.Transact(ctx, func(tx Store) error {
		if count > 0 {
			detached, err := tx.DetachEmployeesFromDepartment(ctx, id)
			if err != nil {
				return err
			}
			report.DetachedEmployees = detached
		}
		return tx.DeleteDepartment(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DeleteEmployee removes an employee. With cascade unset, any owned
// payroll or enrollment row blocks the deletion with Conflict; with
// cascade set, those rows are physically deleted first. A manager
// link held by the employee is cleared either way.
func (v *Validator) DeleteEmployee(ctx context.Context, id uuid.UUID, cascade bool) (*DeleteEmployeeReport, error) {
	key := employeeKey(id)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	if _, err := v.store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	payrolls, err := v.store.CountPayrollsForEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := v.store.CountEnrollmentsForEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if (payrolls > 0 || enrollments > 0) && !cascade {
		return nil, e.Conflict("employee", id.String(),
			fmt.Sprintf("%d payroll and %d enrollment rows still reference this employee", payrolls, enrollments))
	}

	managed, err := v.store.DepartmentManagedBy(ctx, id)
	if err != nil && !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}

	report := &DeleteEmployeeReport{}
	err = v.store.Transact(ctx, func(tx Store) error {
		if cascade {
			deleted, err := tx.DeletePayrollsForEmployee(ctx, id)
			if err != nil {
				return err
			}
			report.DeletedPayrolls = deleted
			if deleted, err = tx.DeleteEnrollmentsForEmployee(ctx, id); err != nil {
				return err
			}
			report.DeletedEnrollments = deleted
		}
		if managed != nil {
			if err := tx.SetDepartmentManager(ctx, managed.ID, nil); err != nil {
				return fmt.Errorf("clearing manager link: %w", err)
			}
		}
		return tx.DeleteEmployee(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DeleteBenefit tombstones a benefit. An enrollment that is active
// right now blocks the deletion with Conflict; purely historical
// enrollments do not, and keep resolving the tombstoned record.
func (v *Validator) DeleteBenefit(ctx context.Context, id uuid.UUID) error {
	key := benefitKey(id)
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	if _, err := v.store.GetBenefit(ctx, id); err != nil {
		return err
	}
	active, err := v.store.CountActiveEnrollmentsForBenefit(ctx, id, v.now())
	if err != nil {
		return err
	}
	if active > 0 {
		return e.Conflict("benefit", id.String(),
			fmt.Sprintf("%d active enrollments reference this benefit", active))
	}
	return v.store.DeleteBenefit(ctx, id)
}
