package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
)

// Snapshot is a consistent copy of all three collections.
type Snapshot struct {
	Students []models.Student
	Subjects []models.Subject
	Records  []models.AttendanceRecord
}

// EntityStore owns the students, subjects and attendance collections and
// writes each collection back to its slot after every change.
type EntityStore struct {
	mu     sync.RWMutex
	slots  SlotStore
	logger *zap.Logger
	newID  func() string

	students []models.Student
	subjects []models.Subject
	records  []models.AttendanceRecord
}

// NewEntityStore constructs an empty store. Call Load to read persisted slots.
func NewEntityStore(slots SlotStore, logger *zap.Logger) *EntityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityStore{
		slots:    slots,
		logger:   logger,
		newID:    newEntityID,
		students: []models.Student{},
		subjects: []models.Subject{},
		records:  []models.AttendanceRecord{},
	}
}

func newEntityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load replaces the in-memory collections with the persisted slots. Missing or
// malformed slots load as empty collections. Only backend failures are returned.
func (s *EntityStore) Load(ctx context.Context) error {
	students, err := loadSlot(ctx, s, KeyStudents, func(st models.Student) bool { return st.ID != "" })
	if err != nil {
		return err
	}
	for i := range students {
		if students[i].Subjects == nil {
			students[i].Subjects = []string{}
		}
	}
	subjects, err := loadSlot(ctx, s, KeySubjects, func(sub models.Subject) bool { return sub.ID != "" })
	if err != nil {
		return err
	}
	records, err := loadSlot(ctx, s, KeyRecords, func(r models.AttendanceRecord) bool {
		return r.ID != "" && r.Status.Valid()
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.students, s.subjects, s.records = students, subjects, records
	s.mu.Unlock()

	s.logger.Info("entity store loaded",
		zap.Int("students", len(students)),
		zap.Int("subjects", len(subjects)),
		zap.Int("records", len(records)),
	)
	return nil
}

func loadSlot[T any](ctx context.Context, s *EntityStore, key string, valid func(T) bool) ([]T, error) {
	raw, ok, err := s.slots.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	items := []T{}
	if !ok || len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("discarding unreadable slot", zap.String("key", key), zap.Error(err))
		return []T{}, nil
	}
	if items == nil {
		return []T{}, nil
	}
	kept := items[:0]
	for _, item := range items {
		if valid(item) {
			kept = append(kept, item)
		}
	}
	if dropped := len(items) - len(kept); dropped > 0 {
		s.logger.Warn("dropped malformed entries", zap.String("key", key), zap.Int("dropped", dropped))
	}
	return kept, nil
}

func (s *EntityStore) persist(ctx context.Context, key string, collection interface{}) error {
	payload, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.slots.Write(ctx, key, payload); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// freshID returns an id not already used by taken.
func (s *EntityStore) freshID(taken func(string) bool) string {
	for {
		id := s.newID()
		if !taken(id) {
			return id
		}
	}
}

// AddStudent assigns an identifier, appends and persists. No uniqueness checks
// are made on roll number or email.
func (s *EntityStore) AddStudent(ctx context.Context, student models.Student) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student.ID = s.freshID(func(id string) bool {
		for _, existing := range s.students {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	if student.Subjects == nil {
		student.Subjects = []string{}
	}
	next := make([]models.Student, len(s.students), len(s.students)+1)
	copy(next, s.students)
	next = append(next, student)
	if err := s.persist(ctx, KeyStudents, next); err != nil {
		return models.Student{}, err
	}
	s.students = next
	return student, nil
}

// AddSubject assigns an identifier, appends and persists.
func (s *EntityStore) AddSubject(ctx context.Context, subject models.Subject) (models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject.ID = s.freshID(func(id string) bool {
		for _, existing := range s.subjects {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	next := make([]models.Subject, len(s.subjects), len(s.subjects)+1)
	copy(next, s.subjects)
	next = append(next, subject)
	if err := s.persist(ctx, KeySubjects, next); err != nil {
		return models.Subject{}, err
	}
	s.subjects = next
	return subject, nil
}

// MarkAttendance assigns an identifier, appends and persists. It does not
// check for an existing record on the same student, subject and date.
func (s *EntityStore) MarkAttendance(ctx context.Context, record models.AttendanceRecord) (models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.freshID(func(id string) bool {
		for _, existing := range s.records {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	next := make([]models.AttendanceRecord, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, record)
	if err := s.persist(ctx, KeyRecords, next); err != nil {
		return models.AttendanceRecord{}, err
	}
	s.records = next
	return record, nil
}

// Students returns a copy of the student collection in insertion order.
func (s *EntityStore) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Student(nil), s.students...)
}

// Subjects returns a copy of the subject collection in insertion order.
func (s *EntityStore) Subjects() []models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Subject(nil), s.subjects...)
}

// Records returns a copy of the attendance collection in insertion order.
func (s *EntityStore) Records() []models.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AttendanceRecord(nil), s.records...)
}

// Snapshot returns all three collections read under a single lock.
func (s *EntityStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Students: append([]models.Student(nil), s.students...),
		Subjects: append([]models.Subject(nil), s.subjects...),
		Records:  append([]models.AttendanceRecord(nil), s.records...),
	}
}

// FindStudent looks up a student by id.
func (s *EntityStore) FindStudent(id string) (models.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.ID == id {
			return st, true
		}
	}
	return models.Student{}, false
}

// FindSubject looks up a subject by id.
func (s *EntityStore) FindSubject(id string) (models.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subjects {
		if sub.ID == id {
			return sub, true
		}
	}
	return models.Subject{}, false
}

// FindRecord returns the record for a student, subject and date triple.
func (s *EntityStore) FindRecord(studentID, subjectID, date string) (models.AttendanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.StudentID == studentID && r.SubjectID == subjectID && r.Date == date {
			return r, true
		}
	}
	return models.AttendanceRecord{}, false
}
