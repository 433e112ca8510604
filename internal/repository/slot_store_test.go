package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySlotStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySlotStore()

	_, ok, err := store.Read(ctx, KeyStudents)
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`[]`)
	require.NoError(t, store.Write(ctx, KeyStudents, value))
	value[0] = 'x'

	got, ok, err := store.Read(ctx, KeyStudents)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
}

func TestFileSlotStore(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store, err := NewFileSlotStore(fsys, "/data")
	require.NoError(t, err)

	_, ok, err := store.Read(ctx, KeySubjects)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(ctx, KeySubjects, []byte(`[{"id":"1"}]`)))
	require.NoError(t, store.Write(ctx, KeySubjects, []byte(`[{"id":"2"}]`)))

	got, ok, err := store.Read(ctx, KeySubjects)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"2"}]`, string(got))

	exists, err := afero.Exists(fsys, "/data/attendance_subjects.json")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fsys, "/data/attendance_subjects.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileSlotStoreBacksEntityStore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	slots, err := NewFileSlotStore(fsys, "/data")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, "/data/attendance_records.json", []byte("garbage"), 0o644))

	store := newLoadedStore(t, slots)
	assert.Empty(t, store.Records())
}

func newSlotMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresSlotStoreEnsureSchema(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS attendance_slots").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresSlotStore(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotStoreRead(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	store := NewPostgresSlotStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM attendance_slots WHERE key = $1")).
		WithArgs(KeyStudents).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":"s1"}]`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM attendance_slots WHERE key = $1")).
		WithArgs(KeySubjects).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got, ok, err := store.Read(context.Background(), KeyStudents)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"s1"}]`, string(got))

	_, ok, err = store.Read(context.Background(), KeySubjects)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSlotStoreWrite(t *testing.T) {
	db, mock, cleanup := newSlotMock(t)
	defer cleanup()
	store := NewPostgresSlotStore(db)

	mock.ExpectExec("INSERT INTO attendance_slots .* ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs(KeyRecords, `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance_slots").
		WithArgs(KeyRecords, `[1]`, sqlmock.AnyArg()).
		WillReturnError(errors.New("read-only transaction"))

	require.NoError(t, store.Write(context.Background(), KeyRecords, []byte(`[]`)))
	err := store.Write(context.Background(), KeyRecords, []byte(`[1]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyRecords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlotStoreSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := NewRedisSlotStore(client, "test:")

	_, ok, err := store.Read(context.Background(), KeyStudents)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), KeyStudents)
	assert.Error(t, store.Write(context.Background(), KeyStudents, []byte(`[]`)))
}

type recordingObserver struct {
	ops []string
}

func (r *recordingObserver) ObserveSlotOperation(op, key string, _ time.Duration, err error) {
	r.ops = append(r.ops, op+":"+key)
}

func TestObserveWrapsOperations(t *testing.T) {
	obs := &recordingObserver{}
	store := Observe(NewMemorySlotStore(), obs)

	require.NoError(t, store.Write(context.Background(), KeyRecords, []byte(`[]`)))
	_, _, err := store.Read(context.Background(), KeyRecords)
	require.NoError(t, err)

	assert.Equal(t, []string{"write:attendance_records", "read:attendance_records"}, obs.ops)

	plain := NewMemorySlotStore()
	assert.Same(t, plain, Observe(plain, nil))
}
