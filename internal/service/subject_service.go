package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

type subjectStore interface {
	AddSubject(ctx context.Context, subject models.Subject) (models.Subject, error)
	Subjects() []models.Subject
	FindSubject(id string) (models.Subject, bool)
}

// CreateSubjectRequest holds payload for adding subjects to the curriculum.
type CreateSubjectRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Program string `json:"program" validate:"required"`
	Year    int    `json:"year" validate:"omitempty,min=1,max=4"`
	Faculty string `json:"faculty"`
}

// SubjectService handles subject use-cases.
type SubjectService struct {
	store     subjectStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(store subjectStore, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{store: store, validator: validate, logger: logger}
}

// Create adds a subject.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	req.Program = strings.TrimSpace(req.Program)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if req.Year == 0 {
		req.Year = 1
	}
	subject, err := s.store.AddSubject(ctx, models.Subject{
		Name:    req.Name,
		Code:    req.Code,
		Program: req.Program,
		Year:    req.Year,
		Faculty: strings.TrimSpace(req.Faculty),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save subject")
	}
	s.logger.Info("subject added", zap.String("subject_id", subject.ID), zap.String("code", subject.Code), zap.String("faculty", subject.Faculty))
	return &subject, nil
}

// List returns subjects, optionally only those offered to program.
func (s *SubjectService) List(_ context.Context, program string) []models.Subject {
	out := []models.Subject{}
	for _, sub := range s.store.Subjects() {
		if program != "" && sub.Program != program {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// Get returns a single subject.
func (s *SubjectService) Get(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := s.store.FindSubject(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return &subject, nil
}
