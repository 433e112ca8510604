package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

type studentStore interface {
	AddStudent(ctx context.Context, student models.Student) (models.Student, error)
	Students() []models.Student
	FindStudent(id string) (models.Student, bool)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	RollNumber string   `json:"rollNumber" validate:"required"`
	Program    string   `json:"program"`
	Year       int      `json:"year" validate:"omitempty,min=1,max=4"`
	Subjects   []string `json:"subjects"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Program string
	Year    int
	Search  string
}

// StudentService handles student use-cases.
type StudentService struct {
	store     studentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(store studentStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, validator: validate, logger: logger}
}

// Create registers a new student. Roll number and email are not checked for uniqueness.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.RollNumber = strings.TrimSpace(req.RollNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.Year == 0 {
		req.Year = 1
	}
	subjects := req.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	student, err := s.store.AddStudent(ctx, models.Student{
		Name:       req.Name,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		Program:    req.Program,
		Year:       req.Year,
		Subjects:   subjects,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save student")
	}
	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.String("program", student.Program), zap.Int("year", student.Year))
	return &student, nil
}

// List returns students in registration order.
func (s *StudentService) List(_ context.Context, filter StudentFilter) []models.Student {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []models.Student{}
	for _, st := range s.store.Students() {
		if filter.Program != "" && st.Program != filter.Program {
			continue
		}
		if filter.Year != 0 && st.Year != filter.Year {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Name), search) && !strings.Contains(strings.ToLower(st.RollNumber), search) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Get returns a single student.
func (s *StudentService) Get(_ context.Context, id string) (*models.Student, error) {
	student, ok := s.store.FindStudent(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &student, nil
}
