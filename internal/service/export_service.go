package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/repository"
	"github.com/noah-isme/uniattend-api/internal/stats"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
	"github.com/noah-isme/uniattend-api/pkg/export"
)

// UnknownStudent labels records whose student no longer resolves.
const UnknownStudent = "Unknown Student"

// ReportFormat selects the rendered file type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ParseReportFormat defaults an empty format to CSV.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", raw))
	}
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// Report is a rendered export ready to stream.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders attendance reports from the current snapshot.
type ExportService struct {
	store  snapshotReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(store snapshotReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{store: store, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// AttendanceReport renders every record matching filter, one row per record.
func (s *ExportService) AttendanceReport(_ context.Context, filter models.AttendanceFilter, format ReportFormat) (*Report, error) {
	snap := s.store.Snapshot()
	students := indexStudents(snap)
	subjects := indexSubjects(snap)

	dataset := export.Dataset{
		Title:    "Attendance Report",
		Subtitle: fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC1123)),
		Headers:  []string{"Date", "Student", "Roll Number", "Subject", "Status", "Marked By"},
		Rows:     []map[string]string{},
	}
	for _, r := range snap.Records {
		if !filter.Matches(r) {
			continue
		}
		row := map[string]string{
			"Date":      r.Date,
			"Student":   UnknownStudent,
			"Subject":   UnknownSubject,
			"Status":    string(r.Status),
			"Marked By": r.MarkedBy,
		}
		if st, ok := students[r.StudentID]; ok {
			row["Student"] = st.Name
			row["Roll Number"] = st.RollNumber
		}
		if sub, ok := subjects[r.SubjectID]; ok {
			row["Subject"] = sub.Code
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	if filter.Date != "" {
		dataset.Subtitle = fmt.Sprintf("Date %s | %s", filter.Date, dataset.Subtitle)
	}
	return s.render(dataset, "attendance", format)
}

// StudentReport renders the per-subject breakdown for one student across the
// subjects of the student's program.
func (s *ExportService) StudentReport(_ context.Context, studentID string, format ReportFormat) (*Report, error) {
	snap := s.store.Snapshot()
	student, ok := indexStudents(snap)[studentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	own := stats.ForStudent(snap.Records, student.ID)

	dataset := export.Dataset{
		Title:    fmt.Sprintf("Attendance: %s (%s)", student.Name, student.RollNumber),
		Subtitle: fmt.Sprintf("%s, year %d | overall %s%%", student.Program, student.Year, stats.StudentPercentage(own)),
		Headers:  []string{"Code", "Subject", "Total", "Present", "Late", "Absent", "Percentage", "Standing"},
		Rows:     []map[string]string{},
	}
	for _, sub := range stats.ProgramSubjects(snap.Subjects, student.Program) {
		b := stats.SubjectBreakdown(own, student.ID, sub.ID)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Code":       sub.Code,
			"Subject":    sub.Name,
			"Total":      strconv.Itoa(b.Total),
			"Present":    strconv.Itoa(b.Present),
			"Late":       strconv.Itoa(b.Late),
			"Absent":     strconv.Itoa(b.Absent),
			"Percentage": b.Percentage,
			"Standing":   string(b.Standing),
		})
	}
	return s.render(dataset, "student_"+sanitizeFilename(student.RollNumber), format)
}

func (s *ExportService) render(dataset export.Dataset, name string, format ReportFormat) (*Report, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = export.ContentTypeCSV
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = export.ContentTypePDF
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	if err != nil {
		s.logger.Error("render report", zap.String("report", name), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	filename := fmt.Sprintf("%s_%s.%s", name, s.now().UTC().Format("20060102_150405"), format)
	return &Report{Filename: filename, ContentType: contentType, Data: payload}, nil
}

// maxFilenameBytes bounds the name stem; truncation keeps whole runes.
const maxFilenameBytes = 100

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) <= maxFilenameBytes {
		return result
	}
	cut := 0
	for cut < len(result) {
		_, size := utf8.DecodeRuneInString(result[cut:])
		if cut+size > maxFilenameBytes {
			break
		}
		cut += size
	}
	return result[:cut]
}

func indexStudents(snap repository.Snapshot) map[string]models.Student {
	out := make(map[string]models.Student, len(snap.Students))
	for _, st := range snap.Students {
		out[st.ID] = st
	}
	return out
}

func indexSubjects(snap repository.Snapshot) map[string]models.Subject {
	out := make(map[string]models.Subject, len(snap.Subjects))
	for _, sub := range snap.Subjects {
		out[sub.ID] = sub
	}
	return out
}
