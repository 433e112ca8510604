package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

func TestStudentServiceCreate(t *testing.T) {
	store := newTestStore(t)
	svc := NewStudentService(store, validator.New(), zap.NewNop())

	ann, err := svc.Create(context.Background(), CreateStudentRequest{
		Name: " Ann ", Email: "a@x.com", RollNumber: "R1", Program: "Engineering",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ann.ID)
	assert.Equal(t, "Ann", ann.Name)
	assert.Equal(t, 1, ann.Year)
	assert.Equal(t, []string{}, ann.Subjects)

	// Empty store with one student and no records still reports a zero rate.
	board, err := NewDashboardService(store, nil).For(context.Background(), admin, dashboardQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, board.Admin.TotalStudents)
	assert.Equal(t, "0", board.Admin.AttendanceRate)
}

func TestStudentServiceCreateAllowsDuplicateRollNumbers(t *testing.T) {
	svc := NewStudentService(newTestStore(t), nil, nil)
	req := CreateStudentRequest{Name: "Ann", Email: "a@x.com", RollNumber: "R1", Year: 2}

	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewStudentService(store, nil, nil)

	cases := map[string]CreateStudentRequest{
		"blank name":    {Name: "  ", Email: "a@x.com", RollNumber: "R1"},
		"bad email":     {Name: "Ann", Email: "not-an-email", RollNumber: "R1"},
		"missing roll":  {Name: "Ann", Email: "a@x.com"},
		"year too high": {Name: "Ann", Email: "a@x.com", RollNumber: "R1", Year: 5},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
	assert.Empty(t, store.Students())
}

func TestStudentServiceListAndGet(t *testing.T) {
	store := newTestStore(t)
	svc := NewStudentService(store, nil, nil)
	ctx := context.Background()
	for _, req := range []CreateStudentRequest{
		{Name: "Ann Lee", Email: "ann@x.com", RollNumber: "CS-01", Program: "CS", Year: 1},
		{Name: "Ben Ito", Email: "ben@x.com", RollNumber: "CS-02", Program: "CS", Year: 2},
		{Name: "Cat Roy", Email: "cat@x.com", RollNumber: "EE-01", Program: "EE", Year: 1},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	assert.Len(t, svc.List(ctx, StudentFilter{}), 3)
	assert.Len(t, svc.List(ctx, StudentFilter{Program: "CS"}), 2)
	assert.Len(t, svc.List(ctx, StudentFilter{Year: 1}), 2)
	found := svc.List(ctx, StudentFilter{Search: "ee-"})
	require.Len(t, found, 1)
	assert.Equal(t, "Cat Roy", found[0].Name)

	got, err := svc.Get(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "EE-01", got.RollNumber)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubjectServiceCreateListGet(t *testing.T) {
	store := newTestStore(t)
	svc := NewSubjectService(store, nil, nil)
	ctx := context.Background()

	algo, err := svc.Create(ctx, CreateSubjectRequest{Name: "Algorithms", Code: "CS201", Program: "CS", Year: 2, Faculty: " Dr. Rao "})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", algo.Faculty)
	_, err = svc.Create(ctx, CreateSubjectRequest{Name: "Circuits", Code: "EE101", Program: "EE"})
	require.NoError(t, err)

	assert.Len(t, svc.List(ctx, ""), 2)
	cs := svc.List(ctx, "CS")
	require.Len(t, cs, 1)
	assert.Equal(t, algo.ID, cs[0].ID)

	got, err := svc.Get(ctx, algo.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS201", got.Code)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubjectServiceCreateValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewSubjectService(store, nil, nil)

	_, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Algorithms", Program: "CS"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Create(context.Background(), CreateSubjectRequest{Name: "Algorithms", Code: "CS201", Program: "CS", Year: 9})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.Subjects())
}
