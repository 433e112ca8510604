package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/repository"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

type readOnlySlots struct{}

func (readOnlySlots) Read(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (readOnlySlots) Write(context.Context, string, []byte) error      { return errors.New("read-only") }

var faculty = models.User{ID: "fac-1", Name: "Dr. Rao", Role: models.RoleFaculty}

func TestMarkAttendanceRecordsMarkedBy(t *testing.T) {
	store := newTestStore(t)
	metrics := newCountingMetrics()
	svc := NewAttendanceService(store, metrics, nil, zap.NewNop())

	rec, err := svc.Mark(context.Background(), faculty, MarkAttendanceRequest{
		StudentID: " S1 ", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "S1", rec.StudentID)
	assert.Equal(t, "fac-1", rec.MarkedBy)
	assert.Equal(t, 1, metrics.marks[models.AttendancePresent])
	assert.Len(t, store.Records(), 1)
}

func TestMarkAttendanceRejectsDuplicateTriple(t *testing.T) {
	store := newTestStore(t)
	metrics := newCountingMetrics()
	svc := NewAttendanceService(store, metrics, nil, nil)
	ctx := context.Background()

	_, err := svc.Mark(ctx, faculty, MarkAttendanceRequest{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent})
	require.NoError(t, err)

	_, err = svc.Mark(ctx, faculty, MarkAttendanceRequest{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendanceAbsent})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadyMarked)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "Attendance already marked for this student today", appErr.Message)

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendancePresent, records[0].Status)
	assert.Equal(t, 1, metrics.duplicates)
}

func TestMarkAttendanceSameStudentOtherDateOrSubject(t *testing.T) {
	store := newTestStore(t)
	svc := NewAttendanceService(store, nil, nil, nil)
	ctx := context.Background()

	for _, req := range []MarkAttendanceRequest{
		{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent},
		{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-11", Status: models.AttendanceLate},
		{StudentID: "S1", SubjectID: "Sub2", Date: "2024-01-10", Status: models.AttendanceAbsent},
		{StudentID: "S2", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent},
	} {
		_, err := svc.Mark(ctx, faculty, req)
		require.NoError(t, err)
	}
	assert.Len(t, store.Records(), 4)
}

func TestMarkAttendanceValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewAttendanceService(store, nil, nil, nil)

	cases := map[string]MarkAttendanceRequest{
		"missing student": {SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent},
		"missing subject": {StudentID: "S1", Date: "2024-01-10", Status: models.AttendancePresent},
		"bad date":        {StudentID: "S1", SubjectID: "Sub1", Date: "10/01/2024", Status: models.AttendancePresent},
		"bad status":      {StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: "excused"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Mark(context.Background(), faculty, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
	assert.Empty(t, store.Records())
}

func TestMarkAttendanceStorageFailure(t *testing.T) {
	store := repository.NewEntityStore(readOnlySlots{}, nil)
	require.NoError(t, store.Load(context.Background()))
	svc := NewAttendanceService(store, nil, nil, nil)

	_, err := svc.Mark(context.Background(), faculty, MarkAttendanceRequest{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendanceLate})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.Empty(t, store.Records())
}

func TestMarkAttendanceConcurrentDuplicates(t *testing.T) {
	store := newTestStore(t)
	svc := NewAttendanceService(store, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Mark(context.Background(), faculty, MarkAttendanceRequest{StudentID: "S1", SubjectID: "Sub1", Date: "2024-01-10", Status: models.AttendancePresent})
		}()
	}
	wg.Wait()
	assert.Len(t, store.Records(), 1)
}

func TestAttendanceListFilters(t *testing.T) {
	store := newTestStore(t)
	seedRecord(t, store, models.AttendanceRecord{StudentID: "S1", SubjectID: "A", Date: "2024-01-10", Status: models.AttendancePresent})
	seedRecord(t, store, models.AttendanceRecord{StudentID: "S2", SubjectID: "A", Date: "2024-01-10", Status: models.AttendanceAbsent})
	seedRecord(t, store, models.AttendanceRecord{StudentID: "S1", SubjectID: "B", Date: "2024-01-11", Status: models.AttendanceLate})
	svc := NewAttendanceService(store, nil, nil, nil)

	assert.Len(t, svc.List(context.Background(), models.AttendanceFilter{}), 3)
	assert.Len(t, svc.List(context.Background(), models.AttendanceFilter{StudentID: "S1"}), 2)
	got := svc.List(context.Background(), models.AttendanceFilter{SubjectID: "A", Date: "2024-01-10", StudentID: "S2"})
	require.Len(t, got, 1)
	assert.Equal(t, models.AttendanceAbsent, got[0].Status)
	assert.NotNil(t, svc.List(context.Background(), models.AttendanceFilter{Date: "1999-01-01"}))
}

func TestRosterListsEligibleStudentsWithMarks(t *testing.T) {
	store := newTestStore(t)
	ann := seedStudent(t, store, models.Student{Name: "Ann", Program: "CS", Year: 2})
	ben := seedStudent(t, store, models.Student{Name: "Ben", Program: "CS", Year: 2})
	seedStudent(t, store, models.Student{Name: "Cat", Program: "CS", Year: 3})
	seedStudent(t, store, models.Student{Name: "Dan", Program: "EE", Year: 2})
	sub := seedSubject(t, store, models.Subject{Name: "Algorithms", Code: "CS201", Program: "CS", Year: 2, Faculty: "Dr. Rao"})
	seedRecord(t, store, models.AttendanceRecord{StudentID: ann.ID, SubjectID: sub.ID, Date: "2024-03-01", Status: models.AttendanceLate})
	seedRecord(t, store, models.AttendanceRecord{StudentID: ben.ID, SubjectID: sub.ID, Date: "2024-02-28", Status: models.AttendancePresent})

	svc := NewAttendanceService(store, nil, nil, nil)
	roster, err := svc.Roster(context.Background(), sub.ID, "2024-03-01")
	require.NoError(t, err)

	require.Len(t, roster.Entries, 2)
	assert.Equal(t, "Ann", roster.Entries[0].Student.Name)
	require.NotNil(t, roster.Entries[0].Status)
	assert.Equal(t, models.AttendanceLate, *roster.Entries[0].Status)
	assert.True(t, roster.Entries[0].Marked)
	assert.Equal(t, "Ben", roster.Entries[1].Student.Name)
	assert.Nil(t, roster.Entries[1].Status)
	assert.False(t, roster.Entries[1].Marked)
}

func TestRosterErrors(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubject(t, store, models.Subject{Name: "Algorithms", Program: "CS", Year: 2})
	svc := NewAttendanceService(store, nil, nil, nil)

	_, err := svc.Roster(context.Background(), "missing", "2024-03-01")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Roster(context.Background(), sub.ID, "yesterday")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
