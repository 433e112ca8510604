package models

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	default:
		return false
	}
}

// DateLayout is the calendar-day encoding used by AttendanceRecord.Date.
const DateLayout = "2006-01-02"

// AttendanceRecord is one status for one student, one subject and one date.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"studentId"`
	SubjectID string           `json:"subjectId"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	MarkedBy  string           `json:"markedBy"`
}

// AttendanceFilter narrows record listings. Empty fields match everything.
type AttendanceFilter struct {
	StudentID string
	SubjectID string
	Date      string
	Status    AttendanceStatus
}

// Matches reports whether the record satisfies every non-empty filter field.
func (f AttendanceFilter) Matches(r AttendanceRecord) bool {
	if f.StudentID != "" && r.StudentID != f.StudentID {
		return false
	}
	if f.SubjectID != "" && r.SubjectID != f.SubjectID {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}
