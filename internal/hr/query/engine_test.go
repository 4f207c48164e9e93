package query

import (
	"context"
	"testing"
	"time"

	"github.com/gartstein/hr/internal/hr/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements Store for engine tests.
type fakeStore struct {
	listEmployees                func(context.Context, EmployeeFilter, Sort, Page) ([]models.Employee, int64, error)
	listBenefits                 func(context.Context, BenefitFilter, Sort, Page) ([]models.Benefit, int64, error)
	listPayrolls                 func(context.Context, PayrollFilter, Sort, Page) ([]models.Payroll, int64, error)
	enrollmentEmployeeIDs        func(context.Context, EnrollmentFilter) ([]uuid.UUID, error)
	enrollmentEmployeeIDsWithMin func(context.Context, EnrollmentFilter, int) ([]uuid.UUID, error)
	enrollmentBenefitIDs         func(context.Context, EnrollmentFilter) ([]uuid.UUID, error)
	benefitIDsByType             func(context.Context, models.BenefitType) ([]uuid.UUID, error)
	employeeIDsInDepartment      func(context.Context, uuid.UUID) ([]uuid.UUID, error)
}

func (f *fakeStore) ListEmployees(ctx context.Context, fl EmployeeFilter, s Sort, p Page) ([]models.Employee, int64, error) {
	return f.listEmployees(ctx, fl, s, p)
}

func (f *fakeStore) ListBenefits(ctx context.Context, fl BenefitFilter, s Sort, p Page) ([]models.Benefit, int64, error) {
	return f.listBenefits(ctx, fl, s, p)
}

func (f *fakeStore) EnrollmentEmployeeIDs(ctx context.Context, fl EnrollmentFilter) ([]uuid.UUID, error) {
	return f.enrollmentEmployeeIDs(ctx, fl)
}

func (f *fakeStore) EnrollmentBenefitIDs(ctx context.Context, fl EnrollmentFilter) ([]uuid.UUID, error) {
	return f.enrollmentBenefitIDs(ctx, fl)
}

func (f *fakeStore) BenefitIDsByType(ctx context.Context, t models.BenefitType) ([]uuid.UUID, error) {
	return f.benefitIDsByType(ctx, t)
}

func (f *fakeStore) ListPayrolls(ctx context.Context, fl PayrollFilter, s Sort, p Page) ([]models.Payroll, int64, error) {
	return f.listPayrolls(ctx, fl, s, p)
}

func (f *fakeStore) EnrollmentEmployeeIDsWithMin(ctx context.Context, fl EnrollmentFilter, min int) ([]uuid.UUID, error) {
	return f.enrollmentEmployeeIDsWithMin(ctx, fl, min)
}

func (f *fakeStore) EmployeeIDsInDepartment(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error) {
	return f.employeeIDsInDepartment(ctx, departmentID)
}

func TestSearchEmployeesFoldsEnrollmentIDs(t *testing.T) {
	enrolled := uuid.New()
	benefitID := uuid.New()
	deptID := uuid.New()

	var gotFilter EmployeeFilter
	store := &fakeStore{
		enrollmentEmployeeIDs: func(_ context.Context, f EnrollmentFilter) ([]uuid.UUID, error) {
			assert.Equal(t, &benefitID, f.BenefitID)
			require.NotNil(t, f.ActiveOn, "active-as-of defaults to now")
			return []uuid.UUID{enrolled}, nil
		},
		listEmployees: func(_ context.Context, f EmployeeFilter, _ Sort, _ Page) ([]models.Employee, int64, error) {
			gotFilter = f
			return []models.Employee{{ID: enrolled}}, 1, nil
		},
	}

	engine := NewEngine(store)
	result, err := engine.SearchEmployees(context.Background(), EmployeeSearch{
		EmployeeFilter: EmployeeFilter{DepartmentID: &deptID},
		BenefitID:      &benefitID,
	}, Sort{}, Page{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, result.Total)
	assert.Equal(t, []uuid.UUID{enrolled}, gotFilter.IDs, "enrolled ids folded into the employee predicate")
	assert.Equal(t, &deptID, gotFilter.DepartmentID, "department clause preserved")
}

func TestSearchEmployeesByBenefitType(t *testing.T) {
	healthID := uuid.New()
	enrolled := uuid.New()

	store := &fakeStore{
		benefitIDsByType: func(_ context.Context, bt models.BenefitType) ([]uuid.UUID, error) {
			assert.Equal(t, models.HealthPlan, bt)
			return []uuid.UUID{healthID}, nil
		},
		enrollmentEmployeeIDs: func(_ context.Context, f EnrollmentFilter) ([]uuid.UUID, error) {
			assert.Equal(t, []uuid.UUID{healthID}, f.BenefitIDs)
			return []uuid.UUID{enrolled}, nil
		},
		listEmployees: func(_ context.Context, f EmployeeFilter, _ Sort, _ Page) ([]models.Employee, int64, error) {
			return []models.Employee{{ID: enrolled}}, 1, nil
		},
	}

	result, err := NewEngine(store).SearchEmployees(context.Background(), EmployeeSearch{
		BenefitType: models.HealthPlan,
	}, Sort{}, Page{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestSearchEmployeesEmptySecondarySetShortCircuits(t *testing.T) {
	benefitID := uuid.New()
	store := &fakeStore{
		enrollmentEmployeeIDs: func(context.Context, EnrollmentFilter) ([]uuid.UUID, error) {
			return nil, nil
		},
		listEmployees: func(context.Context, EmployeeFilter, Sort, Page) ([]models.Employee, int64, error) {
			t.Fatal("primary query should not run when no employee qualifies")
			return nil, 0, nil
		},
	}

	result, err := NewEngine(store).SearchEmployees(context.Background(), EmployeeSearch{
		BenefitID: &benefitID,
	}, Sort{}, Page{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
}

func TestActiveBenefits(t *testing.T) {
	empID := uuid.New()
	benefitID := uuid.New()
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	store := &fakeStore{
		enrollmentBenefitIDs: func(_ context.Context, f EnrollmentFilter) ([]uuid.UUID, error) {
			assert.Equal(t, &empID, f.EmployeeID)
			assert.Equal(t, &asOf, f.ActiveOn)
			return []uuid.UUID{benefitID}, nil
		},
		listBenefits: func(_ context.Context, f BenefitFilter, _ Sort, _ Page) ([]models.Benefit, int64, error) {
			assert.Equal(t, []uuid.UUID{benefitID}, f.IDs)
			require.NotNil(t, f.Active)
			assert.True(t, *f.Active, "only active benefits are projected")
			return []models.Benefit{{ID: benefitID, Name: "HealthPlan"}}, 1, nil
		},
	}

	result, err := NewEngine(store).ActiveBenefits(context.Background(), empID, asOf, Sort{}, Page{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "HealthPlan", result.Items[0].Name)
}

func TestSearchPayrollsByDepartment(t *testing.T) {
	deptID := uuid.New()
	empID := uuid.New()

	var gotFilter PayrollFilter
	store := &fakeStore{
		employeeIDsInDepartment: func(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
			assert.Equal(t, deptID, id)
			return []uuid.UUID{empID}, nil
		},
		listPayrolls: func(_ context.Context, f PayrollFilter, _ Sort, _ Page) ([]models.Payroll, int64, error) {
			gotFilter = f
			return []models.Payroll{{ID: uuid.New(), EmployeeID: empID}}, 1, nil
		},
	}

	result, err := NewEngine(store).SearchPayrolls(context.Background(), PayrollSearch{
		DepartmentID: &deptID,
	}, Sort{}, Page{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, result.Total)
	assert.Equal(t, []uuid.UUID{empID}, gotFilter.EmployeeIDs, "department employees folded into the payroll predicate")
}

func TestSearchPayrollsEmptyDepartmentShortCircuits(t *testing.T) {
	deptID := uuid.New()
	store := &fakeStore{
		employeeIDsInDepartment: func(context.Context, uuid.UUID) ([]uuid.UUID, error) {
			return nil, nil
		},
		listPayrolls: func(context.Context, PayrollFilter, Sort, Page) ([]models.Payroll, int64, error) {
			t.Fatal("primary query should not run for an empty department")
			return nil, 0, nil
		},
	}

	result, err := NewEngine(store).SearchPayrolls(context.Background(), PayrollSearch{
		DepartmentID: &deptID,
	}, Sort{}, Page{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
}

func TestDepartmentBenefits(t *testing.T) {
	deptID := uuid.New()
	empID := uuid.New()
	benefitID := uuid.New()

	store := &fakeStore{
		employeeIDsInDepartment: func(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
			assert.Equal(t, deptID, id)
			return []uuid.UUID{empID}, nil
		},
		enrollmentBenefitIDs: func(_ context.Context, f EnrollmentFilter) ([]uuid.UUID, error) {
			assert.Equal(t, []uuid.UUID{empID}, f.EmployeeIDs)
			assert.Nil(t, f.ActiveOn, "historical enrollments count too")
			return []uuid.UUID{benefitID}, nil
		},
		listBenefits: func(_ context.Context, f BenefitFilter, _ Sort, _ Page) ([]models.Benefit, int64, error) {
			assert.Equal(t, []uuid.UUID{benefitID}, f.IDs)
			return []models.Benefit{{ID: benefitID, Name: "HealthPlan"}}, 1, nil
		},
	}

	result, err := NewEngine(store).DepartmentBenefits(context.Background(), deptID, Sort{}, Page{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "HealthPlan", result.Items[0].Name)
}

func TestSearchEmployeesMinBenefits(t *testing.T) {
	wellCovered := uuid.New()

	var gotFilter EmployeeFilter
	store := &fakeStore{
		enrollmentEmployeeIDsWithMin: func(_ context.Context, _ EnrollmentFilter, min int) ([]uuid.UUID, error) {
			assert.Equal(t, 2, min)
			return []uuid.UUID{wellCovered}, nil
		},
		listEmployees: func(_ context.Context, f EmployeeFilter, _ Sort, _ Page) ([]models.Employee, int64, error) {
			gotFilter = f
			return []models.Employee{{ID: wellCovered}}, 1, nil
		},
	}

	result, err := NewEngine(store).SearchEmployees(context.Background(), EmployeeSearch{
		MinBenefits: 2,
	}, Sort{}, Page{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, []uuid.UUID{wellCovered}, gotFilter.IDs)
}

func TestIntersect(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{a, b}, intersect(nil, []uuid.UUID{a, b}), "nil base is unconstrained")
	assert.Equal(t, []uuid.UUID{b}, intersect([]uuid.UUID{a, b}, []uuid.UUID{b, c}))
	assert.Empty(t, intersect([]uuid.UUID{a}, []uuid.UUID{c}))
}
