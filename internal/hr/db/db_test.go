package db

import (
	"context"
	"errors"
	"testing"
	"time"

	e "github.com/gartstein/hr/internal/hr/errors"
	"github.com/gartstein/hr/internal/hr/models"
	"github.com/gartstein/hr/internal/hr/query"
	"github.com/gartstein/hr/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory SQLite store for testing.
func SetupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLite(":memory:")
	require.NoError(t, err, "failed to open test database")
	return repo
}

func newEmployee(name, taxID string) *models.Employee {
	return &models.Employee{
		ID:            uuid.New(),
		Name:          name,
		TaxID:         taxID,
		Position:      "Engineer",
		AdmissionDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateDepartment(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := &models.Department{ID: uuid.New(), Name: "Engineering", Location: "Berlin"}
	require.NoError(t, repo.CreateDepartment(ctx, dept))

	retrieved, err := repo.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", retrieved.Name)
	assert.Nil(t, retrieved.ManagerID)
}

func TestCreateDepartmentDuplicateName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateDepartment(ctx, &models.Department{ID: uuid.New(), Name: "Engineering"}))
	err := repo.CreateDepartment(ctx, &models.Department{ID: uuid.New(), Name: "Engineering"})
	assert.ErrorIs(t, err, e.ErrDuplicateKey, "duplicate department name should be rejected")
}

func TestGetDepartmentNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetDepartment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestUpdateDepartment(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := &models.Department{ID: uuid.New(), Name: "Old Name"}
	require.NoError(t, repo.CreateDepartment(ctx, dept))

	err := repo.UpdateDepartment(ctx, &models.DepartmentUpdate{
		ID:       dept.ID,
		Name:     utils.Ptr("New Name"),
		Location: utils.Ptr("Lisbon"),
	})
	require.NoError(t, err)

	updated, err := repo.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "Lisbon", updated.Location)
}

func TestUpdateDepartmentNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateDepartment(context.Background(), &models.DepartmentUpdate{
		ID:   uuid.New(),
		Name: utils.Ptr("Ghost"),
	})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCreateEmployeeDuplicateTaxID(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateEmployee(ctx, newEmployee("Alice", "111.222.333-44")))
	err := repo.CreateEmployee(ctx, newEmployee("Alice Clone", "111.222.333-44"))
	assert.ErrorIs(t, err, e.ErrDuplicateKey, "duplicate tax id should be rejected")
}

func TestSetDepartmentManagerUniqueness(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	alice := newEmployee("Alice", "100")
	require.NoError(t, repo.CreateEmployee(ctx, alice))

	eng := &models.Department{ID: uuid.New(), Name: "Engineering"}
	sales := &models.Department{ID: uuid.New(), Name: "Sales"}
	require.NoError(t, repo.CreateDepartment(ctx, eng))
	require.NoError(t, repo.CreateDepartment(ctx, sales))

	require.NoError(t, repo.SetDepartmentManager(ctx, eng.ID, &alice.ID))

	// The unique index keeps one employee from managing two departments.
	err := repo.SetDepartmentManager(ctx, sales.ID, &alice.ID)
	assert.ErrorIs(t, err, e.ErrDuplicateKey)

	managed, err := repo.DepartmentManagedBy(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, eng.ID, managed.ID)

	require.NoError(t, repo.SetDepartmentManager(ctx, eng.ID, nil))
	_, err = repo.DepartmentManagedBy(ctx, alice.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestPayrollUniquePerEmployeeMonth(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	emp := newEmployee("Alice", "100")
	require.NoError(t, repo.CreateEmployee(ctx, emp))

	payroll := &models.Payroll{
		ID:             uuid.New(),
		EmployeeID:     emp.ID,
		GrossSalary:    5000,
		Deductions:     500,
		Discount:       100,
		ReferenceMonth: "2024-03",
	}
	require.NoError(t, repo.CreatePayroll(ctx, payroll))

	dup := &models.Payroll{ID: uuid.New(), EmployeeID: emp.ID, GrossSalary: 6000, ReferenceMonth: "2024-03"}
	assert.ErrorIs(t, repo.CreatePayroll(ctx, dup), e.ErrDuplicateKey)

	// Same month for a different employee is fine.
	other := newEmployee("Bob", "200")
	require.NoError(t, repo.CreateEmployee(ctx, other))
	ok := &models.Payroll{ID: uuid.New(), EmployeeID: other.ID, GrossSalary: 4000, ReferenceMonth: "2024-03"}
	assert.NoError(t, repo.CreatePayroll(ctx, ok))
}

func TestDetachEmployeesFromDepartment(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	dept := &models.Department{ID: uuid.New(), Name: "Engineering"}
	require.NoError(t, repo.CreateDepartment(ctx, dept))

	for i, taxID := range []string{"1", "2", "3"} {
		emp := newEmployee("Emp", taxID)
		emp.Name = emp.Name + taxID
		emp.DepartmentID = &dept.ID
		require.NoError(t, repo.CreateEmployee(ctx, emp), "employee %d", i)
	}

	count, err := repo.CountEmployeesInDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	detached, err := repo.DetachEmployeesFromDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, detached)

	count, err = repo.CountEmployeesInDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBenefitSoftDelete(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	benefit := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 300, Type: models.HealthPlan, Active: true}
	require.NoError(t, repo.CreateBenefit(ctx, benefit))
	require.NoError(t, repo.DeleteBenefit(ctx, benefit.ID))

	_, err := repo.GetBenefit(ctx, benefit.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "tombstoned benefit should be hidden from normal reads")

	tombstone, err := repo.GetBenefitUnscoped(ctx, benefit.ID)
	require.NoError(t, err, "tombstoned benefit should still resolve unscoped")
	assert.Equal(t, 300.0, tombstone.Value)
}

func TestBenefitNameReusableAfterDelete(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 300, Type: models.HealthPlan}
	require.NoError(t, repo.CreateBenefit(ctx, first))

	dup := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 400, Type: models.HealthPlan}
	assert.ErrorIs(t, repo.CreateBenefit(ctx, dup), e.ErrDuplicateKey, "live names stay unique")

	require.NoError(t, repo.DeleteBenefit(ctx, first.ID))

	second := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 400, Type: models.HealthPlan}
	require.NoError(t, repo.CreateBenefit(ctx, second), "tombstone should free the name")

	got, err := repo.GetBenefit(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.Value)
}

func TestListEmployeesCountsAndPages(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Alice", "Alan", "Bob"} {
		require.NoError(t, repo.CreateEmployee(ctx, newEmployee(name, name)))
	}

	items, total, err := repo.ListEmployees(ctx, query.EmployeeFilter{NameContains: "al"}, query.Sort{}, query.Page{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "total should count all matches, not the page")
	assert.Len(t, items, 1)
}

func TestEnrollmentPairHelpers(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	emp := newEmployee("Alice", "100")
	require.NoError(t, repo.CreateEmployee(ctx, emp))
	benefit := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 300, Type: models.HealthPlan, Active: true}
	require.NoError(t, repo.CreateBenefit(ctx, benefit))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 5, 0)
	require.NoError(t, repo.CreateEnrollment(ctx, &models.EmployeeBenefit{
		ID:         uuid.New(),
		EmployeeID: emp.ID,
		BenefitID:  benefit.ID,
		StartDate:  start,
		EndDate:    &end,
	}))
	require.NoError(t, repo.CreateEnrollment(ctx, &models.EmployeeBenefit{
		ID:         uuid.New(),
		EmployeeID: emp.ID,
		BenefitID:  benefit.ID,
		StartDate:  end,
	}))

	pair, err := repo.EnrollmentsForPair(ctx, emp.ID, benefit.ID)
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.True(t, pair[0].StartDate.Before(pair[1].StartDate), "pair scan should be ordered by start date")

	active, err := repo.CountActiveEnrollmentsForBenefit(ctx, benefit.ID, end.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, active, "only the open-ended enrollment is active after the first ended")

	ids, err := repo.EnrollmentEmployeeIDs(ctx, query.EnrollmentFilter{BenefitID: &benefit.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{emp.ID}, ids, "distinct employee ids for the benefit")
}

func TestEnrollmentEmployeeIDsWithMin(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	alice := newEmployee("Alice", "111")
	bob := newEmployee("Bob", "222")
	require.NoError(t, repo.CreateEmployee(ctx, alice))
	require.NoError(t, repo.CreateEmployee(ctx, bob))

	health := &models.Benefit{ID: uuid.New(), Name: "HealthPlan", Value: 300, Type: models.HealthPlan}
	meal := &models.Benefit{ID: uuid.New(), Name: "MealVoucher", Value: 50, Type: models.MealVoucher}
	require.NoError(t, repo.CreateBenefit(ctx, health))
	require.NoError(t, repo.CreateBenefit(ctx, meal))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	// Alice holds two distinct benefits; one enrollment of the first
	// already ended plus a later one, so raw row count would be three.
	for _, en := range []*models.EmployeeBenefit{
		{ID: uuid.New(), EmployeeID: alice.ID, BenefitID: health.ID, StartDate: start, EndDate: &end},
		{ID: uuid.New(), EmployeeID: alice.ID, BenefitID: health.ID, StartDate: end},
		{ID: uuid.New(), EmployeeID: alice.ID, BenefitID: meal.ID, StartDate: start},
		{ID: uuid.New(), EmployeeID: bob.ID, BenefitID: health.ID, StartDate: start},
	} {
		require.NoError(t, repo.CreateEnrollment(ctx, en))
	}

	ids, err := repo.EnrollmentEmployeeIDsWithMin(ctx, query.EnrollmentFilter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, ids, "distinct benefits count, not enrollment rows")

	ids, err = repo.EnrollmentEmployeeIDsWithMin(ctx, query.EnrollmentFilter{}, 1)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = repo.EnrollmentEmployeeIDsWithMin(ctx, query.EnrollmentFilter{}, 3)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEmployeeIDsInDepartment(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	eng := &models.Department{ID: uuid.New(), Name: "Engineering"}
	require.NoError(t, repo.CreateDepartment(ctx, eng))

	alice := newEmployee("Alice", "111")
	alice.DepartmentID = &eng.ID
	bob := newEmployee("Bob", "222")
	require.NoError(t, repo.CreateEmployee(ctx, alice))
	require.NoError(t, repo.CreateEmployee(ctx, bob))

	ids, err := repo.EmployeeIDsInDepartment(ctx, eng.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.ID}, ids)
}

func TestTranslateUnknownErrors(t *testing.T) {
	assert.NoError(t, translate("employee", "", nil))

	err := translate("employee", "", errors.New("connection reset by peer"))
	assert.ErrorIs(t, err, e.ErrUnavailable)

	err = translate("employee", "", context.DeadlineExceeded)
	assert.ErrorIs(t, err, e.ErrUnavailable)
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.CreateDepartment(ctx, &models.Department{ID: uuid.New(), Name: "Doomed"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, total, err := repo.ListDepartments(ctx, query.DepartmentFilter{NameContains: "doomed"}, query.Sort{}, query.Page{})
	require.NoError(t, err)
	assert.Zero(t, total, "rolled-back department should not exist")
}
