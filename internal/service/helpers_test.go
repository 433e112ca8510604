package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/repository"
)

type countingMetrics struct {
	marks      map[models.AttendanceStatus]int
	duplicates int
	logins     map[models.Role]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{marks: map[models.AttendanceStatus]int{}, logins: map[models.Role]int{}}
}

func (m *countingMetrics) RecordMark(status models.AttendanceStatus) { m.marks[status]++ }
func (m *countingMetrics) RecordDuplicateMark()                      { m.duplicates++ }
func (m *countingMetrics) RecordLogin(role models.Role)              { m.logins[role]++ }

func newTestStore(t *testing.T) *repository.EntityStore {
	t.Helper()
	store := repository.NewEntityStore(repository.NewMemorySlotStore(), zap.NewNop())
	require.NoError(t, store.Load(context.Background()))
	return store
}

func seedStudent(t *testing.T, store *repository.EntityStore, st models.Student) models.Student {
	t.Helper()
	out, err := store.AddStudent(context.Background(), st)
	require.NoError(t, err)
	return out
}

func seedSubject(t *testing.T, store *repository.EntityStore, sub models.Subject) models.Subject {
	t.Helper()
	out, err := store.AddSubject(context.Background(), sub)
	require.NoError(t, err)
	return out
}

func seedRecord(t *testing.T, store *repository.EntityStore, r models.AttendanceRecord) models.AttendanceRecord {
	t.Helper()
	out, err := store.MarkAttendance(context.Background(), r)
	require.NoError(t, err)
	return out
}
