// Package stats holds the pure derivations every dashboard recomputes from
// the entity collections. Nothing here is cached.
package stats

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/uniattend-api/internal/models"
)

// RecentLimit caps RecentAttendance.
const RecentLimit = 10

// LateCredit is the weight a late session contributes to a percentage.
const LateCredit = 0.5

// Standing buckets a percentage for display.
type Standing string

const (
	StandingGood    Standing = "good"
	StandingWarning Standing = "warning"
	StandingLow     Standing = "low"
)

// Tally counts records by status.
type Tally struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

// Attended counts present and late sessions.
func (t Tally) Attended() int {
	return t.Present + t.Late
}

// SubjectStats is one student's breakdown for one subject.
type SubjectStats struct {
	Tally
	Percentage string   `json:"percentage"`
	Standing   Standing `json:"standing"`
}

// Count tallies records by status. Absent is whatever is neither present nor late.
func Count(records []models.AttendanceRecord) Tally {
	t := Tally{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case models.AttendancePresent:
			t.Present++
		case models.AttendanceLate:
			t.Late++
		}
	}
	t.Absent = t.Total - t.Present - t.Late
	return t
}

// AttendanceRate is present / total * 100 to one decimal, "0" with no records.
// Late counts as not present here.
func AttendanceRate(records []models.AttendanceRecord) string {
	t := Count(records)
	if t.Total == 0 {
		return "0"
	}
	return FormatPercent(float64(t.Present) / float64(t.Total) * 100)
}

// StudentPercentage is (present + late/2) / total * 100 to one decimal, "0" with no records.
func StudentPercentage(records []models.AttendanceRecord) string {
	return percentage(Count(records))
}

func percentage(t Tally) string {
	if t.Total == 0 {
		return "0"
	}
	return FormatPercent((float64(t.Present) + float64(t.Late)*LateCredit) / float64(t.Total) * 100)
}

// exactPrec holds any float64 scaled by ten plus one half without loss.
const exactPrec = 2048

// FormatPercent renders v with one decimal. The exact binary value of v is
// rounded half up; the float64 product v*10 must not be rounded instead, as it
// can land on a .5 that v itself sits just below.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	x := new(big.Float).SetPrec(exactPrec).SetFloat64(v)
	x.Mul(x, big.NewFloat(10))
	x.Add(x, big.NewFloat(0.5))
	tenths, _ := x.Int(nil)
	whole, frac := new(big.Int).QuoRem(tenths, big.NewInt(10), new(big.Int))
	return sign + whole.String() + "." + frac.String()
}

// ClassifyStanding maps a formatted percentage to good (>=75), warning (>=50) or low.
func ClassifyStanding(percentage string) Standing {
	v, err := strconv.ParseFloat(percentage, 64)
	if err != nil {
		return StandingLow
	}
	switch {
	case v >= 75:
		return StandingGood
	case v >= 50:
		return StandingWarning
	default:
		return StandingLow
	}
}

// ForStudent filters records belonging to studentID.
func ForStudent(records []models.AttendanceRecord, studentID string) []models.AttendanceRecord {
	out := []models.AttendanceRecord{}
	for _, r := range records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out
}

// SubjectBreakdown tallies studentID's records for subjectID.
func SubjectBreakdown(records []models.AttendanceRecord, studentID, subjectID string) SubjectStats {
	var mine []models.AttendanceRecord
	for _, r := range records {
		if r.StudentID == studentID && r.SubjectID == subjectID {
			mine = append(mine, r)
		}
	}
	t := Count(mine)
	pct := percentage(t)
	return SubjectStats{Tally: t, Percentage: pct, Standing: ClassifyStanding(pct)}
}

// FacultySubjects returns the subjects whose free-text faculty field matches
// the faculty's display name, by case-insensitive substring or exact equality.
// This is a name heuristic, not a reference: renaming either side breaks it,
// and a short name such as "Li" also matches "Dr. Lina Wu".
func FacultySubjects(subjects []models.Subject, facultyName string) []models.Subject {
	out := []models.Subject{}
	needle := strings.ToLower(facultyName)
	for _, s := range subjects {
		if strings.Contains(strings.ToLower(s.Faculty), needle) || s.Faculty == facultyName {
			out = append(out, s)
		}
	}
	return out
}

// ProgramSubjects returns subjects offered to program.
func ProgramSubjects(subjects []models.Subject, program string) []models.Subject {
	out := []models.Subject{}
	for _, s := range subjects {
		if s.Program == program {
			out = append(out, s)
		}
	}
	return out
}

// EligibleStudents returns students whose program and year both equal the subject's.
func EligibleStudents(students []models.Student, subject models.Subject) []models.Student {
	out := []models.Student{}
	for _, st := range students {
		if st.Program == subject.Program && st.Year == subject.Year {
			out = append(out, st)
		}
	}
	return out
}

// RecordsOn returns records dated date.
func RecordsOn(records []models.AttendanceRecord, date string) []models.AttendanceRecord {
	out := []models.AttendanceRecord{}
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

// RecentAttendance returns studentID's records newest date first, at most limit
// of them. Records with equal dates keep their stored order; unparsable dates sort last.
func RecentAttendance(records []models.AttendanceRecord, studentID string, limit int) []models.AttendanceRecord {
	mine := ForStudent(records, studentID)
	keys := make(map[string]time.Time, len(mine))
	for _, r := range mine {
		if _, ok := keys[r.Date]; ok {
			continue
		}
		if parsed, err := time.Parse(models.DateLayout, r.Date); err == nil {
			keys[r.Date] = parsed
		} else {
			keys[r.Date] = time.Time{}
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return keys[mine[i].Date].After(keys[mine[j].Date])
	})
	if limit >= 0 && len(mine) > limit {
		mine = mine[:limit]
	}
	return mine
}
