package repository

import (
	"context"
	"time"
)

// Slot keys holding the three persisted collections as JSON arrays.
const (
	KeyStudents = "attendance_students"
	KeySubjects = "attendance_subjects"
	KeyRecords  = "attendance_records"
)

// SlotStore is the persistence port behind the entity store. Each slot holds
// one serialized collection and is read and written whole.
type SlotStore interface {
	// Read returns the raw slot value and whether the slot exists.
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
}

// SlotObserver receives timing for every slot operation.
type SlotObserver interface {
	ObserveSlotOperation(op, key string, duration time.Duration, err error)
}

type observedSlotStore struct {
	next     SlotStore
	observer SlotObserver
}

// Observe wraps a SlotStore so every read and write is reported to observer.
func Observe(next SlotStore, observer SlotObserver) SlotStore {
	if observer == nil {
		return next
	}
	return &observedSlotStore{next: next, observer: observer}
}

func (s *observedSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.next.Read(ctx, key)
	s.observer.ObserveSlotOperation("read", key, time.Since(start), err)
	return value, ok, err
}

func (s *observedSlotStore) Write(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Write(ctx, key, value)
	s.observer.ObserveSlotOperation("write", key, time.Since(start), err)
	return err
}
