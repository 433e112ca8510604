package dto

import (
	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/stats"
)

// DashboardQuery carries the optional faculty selection.
type DashboardQuery struct {
	SubjectID string
	Date      string
}

// Dashboard is the role-tagged view model. Exactly one of Admin, Faculty or
// Student is set, matching Role.
type Dashboard struct {
	Role    models.Role       `json:"role"`
	User    models.User       `json:"user"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
	Faculty *FacultyDashboard `json:"faculty,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
}

// AdminDashboard summarises the whole institution.
type AdminDashboard struct {
	TotalStudents  int              `json:"totalStudents"`
	TotalSubjects  int              `json:"totalSubjects"`
	TotalRecords   int              `json:"totalRecords"`
	AttendanceRate string           `json:"attendanceRate"`
	Students       []models.Student `json:"students"`
	Subjects       []models.Subject `json:"subjects"`
}

// FacultyDashboard shows the subjects matched to the faculty and, when a
// subject is selected, the marking roster for the chosen date.
type FacultyDashboard struct {
	Date            string           `json:"date"`
	MySubjects      []models.Subject `json:"mySubjects"`
	MySubjectsCount int              `json:"mySubjectsCount"`
	TotalStudents   int              `json:"totalStudents"`
	TodayAttendance int              `json:"todayAttendance"`
	Roster          *Roster          `json:"roster,omitempty"`
}

// Roster lists the students eligible for a subject with their mark for a date.
type Roster struct {
	Subject models.Subject `json:"subject"`
	Date    string         `json:"date"`
	Entries []RosterEntry  `json:"entries"`
}

// RosterEntry is nil-Status when the student is still unmarked.
type RosterEntry struct {
	Student models.Student           `json:"student"`
	Status  *models.AttendanceStatus `json:"status"`
	Marked  bool                     `json:"marked"`
}

// StudentDashboard is the student's own attendance picture.
type StudentDashboard struct {
	Program              string              `json:"program"`
	TotalClasses         int                 `json:"totalClasses"`
	Present              int                 `json:"present"`
	Late                 int                 `json:"late"`
	Absent               int                 `json:"absent"`
	Attended             int                 `json:"attended"`
	AttendancePercentage string              `json:"attendancePercentage"`
	MySubjects           []SubjectAttendance `json:"mySubjects"`
	Recent               []RecentAttendance  `json:"recent"`
}

// SubjectAttendance pairs a subject with the student's breakdown for it.
type SubjectAttendance struct {
	Subject models.Subject     `json:"subject"`
	Stats   stats.SubjectStats `json:"stats"`
}

// RecentAttendance is a record resolved against its subject for display.
type RecentAttendance struct {
	Record      models.AttendanceRecord `json:"record"`
	SubjectName string                  `json:"subjectName"`
	SubjectCode string                  `json:"subjectCode"`
}
