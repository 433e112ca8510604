package service

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/dto"
	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/stats"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

type attendanceStore interface {
	MarkAttendance(ctx context.Context, record models.AttendanceRecord) (models.AttendanceRecord, error)
	FindRecord(studentID, subjectID, date string) (models.AttendanceRecord, bool)
	FindSubject(id string) (models.Subject, bool)
	Students() []models.Student
	Records() []models.AttendanceRecord
}

type attendanceMetrics interface {
	RecordMark(status models.AttendanceStatus)
	RecordDuplicateMark()
}

// MarkAttendanceRequest records one status for one student, subject and date.
type MarkAttendanceRequest struct {
	StudentID string                  `json:"studentId" validate:"required"`
	SubjectID string                  `json:"subjectId" validate:"required"`
	Date      string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
}

// AttendanceService runs the marking workflow. A triple moves from unmarked to
// marked exactly once; there is no unmark.
type AttendanceService struct {
	store     attendanceStore
	metrics   attendanceMetrics
	validator *validator.Validate
	logger    *zap.Logger

	// mu makes the existence check and the append one step.
	mu sync.Mutex
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(store attendanceStore, metrics attendanceMetrics, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, metrics: metrics, validator: validate, logger: logger}
}

// Mark records the status for the triple, marked by user. A triple that is
// already marked is rejected and the existing record is left untouched.
func (s *AttendanceService) Mark(ctx context.Context, user models.User, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	req.Date = strings.TrimSpace(req.Date)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.store.FindRecord(req.StudentID, req.SubjectID, req.Date); ok {
		if s.metrics != nil {
			s.metrics.RecordDuplicateMark()
		}
		s.logger.Info("attendance already marked",
			zap.String("student_id", req.StudentID),
			zap.String("subject_id", req.SubjectID),
			zap.String("date", req.Date),
			zap.String("existing_status", string(existing.Status)),
		)
		return nil, appErrors.Clone(appErrors.ErrAlreadyMarked, "")
	}

	record, err := s.store.MarkAttendance(ctx, models.AttendanceRecord{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Date:      req.Date,
		Status:    req.Status,
		MarkedBy:  user.ID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save attendance")
	}
	if s.metrics != nil {
		s.metrics.RecordMark(record.Status)
	}
	return &record, nil
}

// List returns records matching filter in the order they were marked.
func (s *AttendanceService) List(_ context.Context, filter models.AttendanceFilter) []models.AttendanceRecord {
	out := []models.AttendanceRecord{}
	for _, r := range s.store.Records() {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Roster lists the students eligible for subjectID with their mark on date.
func (s *AttendanceService) Roster(_ context.Context, subjectID, date string) (*dto.Roster, error) {
	subject, ok := s.store.FindSubject(subjectID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	if err := s.validator.Var(date, "required,datetime=2006-01-02"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date format, expected YYYY-MM-DD")
	}
	return buildRoster(subject, date, s.store.Students(), s.store.Records()), nil
}

func buildRoster(subject models.Subject, date string, students []models.Student, records []models.AttendanceRecord) *dto.Roster {
	marks := make(map[string]models.AttendanceStatus)
	for _, r := range records {
		if r.SubjectID != subject.ID || r.Date != date {
			continue
		}
		if _, seen := marks[r.StudentID]; !seen {
			marks[r.StudentID] = r.Status
		}
	}
	roster := &dto.Roster{Subject: subject, Date: date, Entries: []dto.RosterEntry{}}
	for _, st := range stats.EligibleStudents(students, subject) {
		entry := dto.RosterEntry{Student: st}
		if status, ok := marks[st.ID]; ok {
			status := status
			entry.Status = &status
			entry.Marked = true
		}
		roster.Entries = append(roster.Entries, entry)
	}
	return roster
}
