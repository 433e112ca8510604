package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/dto"
	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/repository"
	"github.com/noah-isme/uniattend-api/internal/stats"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
)

// UnknownSubject labels records whose subject no longer resolves.
const UnknownSubject = "Unknown Subject"

type snapshotReader interface {
	Snapshot() repository.Snapshot
}

// DashboardService builds the role views. Every call reads a fresh snapshot
// and recomputes all statistics.
type DashboardService struct {
	store  snapshotReader
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(store snapshotReader, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{store: store, logger: logger, now: time.Now}
}

// For dispatches on the session role and returns the matching view.
func (s *DashboardService) For(_ context.Context, user models.User, query dto.DashboardQuery) (*dto.Dashboard, error) {
	snap := s.store.Snapshot()
	board := &dto.Dashboard{Role: user.Role, User: user}

	switch user.Role {
	case models.RoleAdmin:
		board.Admin = adminView(snap)
	case models.RoleFaculty:
		date := strings.TrimSpace(query.Date)
		if date == "" {
			date = s.now().Format(models.DateLayout)
		} else if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date format, expected YYYY-MM-DD")
		}
		board.Faculty = facultyView(snap, user, strings.TrimSpace(query.SubjectID), date)
	case models.RoleStudent:
		board.Student = studentView(snap, user)
	default:
		s.logger.Warn("dashboard requested for unknown role", zap.String("role", string(user.Role)))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	return board, nil
}

func adminView(snap repository.Snapshot) *dto.AdminDashboard {
	return &dto.AdminDashboard{
		TotalStudents:  len(snap.Students),
		TotalSubjects:  len(snap.Subjects),
		TotalRecords:   len(snap.Records),
		AttendanceRate: stats.AttendanceRate(snap.Records),
		Students:       snap.Students,
		Subjects:       snap.Subjects,
	}
}

func facultyView(snap repository.Snapshot, user models.User, subjectID, date string) *dto.FacultyDashboard {
	mine := stats.FacultySubjects(snap.Subjects, user.Name)
	view := &dto.FacultyDashboard{
		Date:            date,
		MySubjects:      mine,
		MySubjectsCount: len(mine),
		TotalStudents:   len(snap.Students),
		TodayAttendance: len(stats.RecordsOn(snap.Records, date)),
	}
	if subjectID == "" {
		return view
	}
	for _, sub := range snap.Subjects {
		if sub.ID == subjectID {
			view.Roster = buildRoster(sub, date, snap.Students, snap.Records)
			return view
		}
	}
	// A stale selection still renders the view, with nobody to mark.
	view.Roster = &dto.Roster{Subject: models.Subject{ID: subjectID}, Date: date, Entries: []dto.RosterEntry{}}
	return view
}

func studentView(snap repository.Snapshot, user models.User) *dto.StudentDashboard {
	own := stats.ForStudent(snap.Records, user.ID)
	tally := stats.Count(own)

	view := &dto.StudentDashboard{
		Program:              user.Program,
		TotalClasses:         tally.Total,
		Present:              tally.Present,
		Late:                 tally.Late,
		Absent:               tally.Absent,
		Attended:             tally.Attended(),
		AttendancePercentage: stats.StudentPercentage(own),
		MySubjects:           []dto.SubjectAttendance{},
		Recent:               []dto.RecentAttendance{},
	}

	for _, sub := range stats.ProgramSubjects(snap.Subjects, user.Program) {
		view.MySubjects = append(view.MySubjects, dto.SubjectAttendance{
			Subject: sub,
			Stats:   stats.SubjectBreakdown(own, user.ID, sub.ID),
		})
	}

	byID := make(map[string]models.Subject, len(snap.Subjects))
	for _, sub := range snap.Subjects {
		byID[sub.ID] = sub
	}
	for _, r := range stats.RecentAttendance(own, user.ID, stats.RecentLimit) {
		entry := dto.RecentAttendance{Record: r, SubjectName: UnknownSubject}
		if sub, ok := byID[r.SubjectID]; ok {
			entry.SubjectName = sub.Name
			entry.SubjectCode = sub.Code
		}
		view.Recent = append(view.Recent, entry)
	}
	return view
}
