package stats

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniattend-api/internal/models"
)

func rec(student, subject, date string, status models.AttendanceStatus) models.AttendanceRecord {
	return models.AttendanceRecord{ID: fmt.Sprintf("%s-%s-%s", student, subject, date), StudentID: student, SubjectID: subject, Date: date, Status: status}
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, "0", AttendanceRate(nil))

	records := []models.AttendanceRecord{
		rec("a", "x", "2024-01-01", models.AttendancePresent),
		rec("b", "x", "2024-01-01", models.AttendanceLate),
		rec("c", "x", "2024-01-01", models.AttendanceAbsent),
	}
	assert.Equal(t, "33.3", AttendanceRate(records))
	assert.Equal(t, "100.0", AttendanceRate(records[:1]))
}

func TestAttendanceRateMatchesFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []models.AttendanceStatus{models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate}
	for n := 1; n < 60; n++ {
		records := make([]models.AttendanceRecord, n)
		present, late := 0, 0
		for i := range records {
			s := statuses[rng.Intn(len(statuses))]
			if s == models.AttendancePresent {
				present++
			}
			if s == models.AttendanceLate {
				late++
			}
			records[i] = rec("s", "x", "2024-01-01", s)
		}
		assert.Equal(t, FormatPercent(100*float64(present)/float64(n)), AttendanceRate(records))
		assert.Equal(t, FormatPercent(100*(float64(present)+0.5*float64(late))/float64(n)), StudentPercentage(records))
	}
}

func TestStudentPercentageHalfCreditForLate(t *testing.T) {
	records := []models.AttendanceRecord{
		rec("s", "x", "2024-01-01", models.AttendancePresent),
		rec("s", "x", "2024-01-02", models.AttendancePresent),
		rec("s", "x", "2024-01-03", models.AttendanceLate),
	}
	assert.Equal(t, "83.3", StudentPercentage(records))
	assert.Equal(t, "0", StudentPercentage(nil))
}

func TestFormatPercentRoundsHalfUp(t *testing.T) {
	assert.Equal(t, "12.3", FormatPercent(12.25))
	assert.Equal(t, "0.0", FormatPercent(0.04))
	assert.Equal(t, "66.7", FormatPercent(200.0/3))
	assert.Equal(t, "100.0", FormatPercent(100))
	assert.Equal(t, "0.0", FormatPercent(0))
}

func TestPercentagesRoundExactValueAtScale(t *testing.T) {
	fill := func(n int, status models.AttendanceStatus, count int) []models.AttendanceRecord {
		records := make([]models.AttendanceRecord, n)
		for i := range records {
			s := models.AttendanceAbsent
			if i < count {
				s = status
			}
			records[i] = rec("s", "x", fmt.Sprintf("d%d", i), s)
		}
		return records
	}

	tests := []struct {
		name    string
		records []models.AttendanceRecord
		rate    string
		percent string
	}{
		{"3 present of 2000", fill(2000, models.AttendancePresent, 3), "0.1", "0.1"},
		{"3 late of 1000", fill(1000, models.AttendanceLate, 3), "0.0", "0.1"},
		{"1 present of 8", fill(8, models.AttendancePresent, 1), "12.5", "12.5"},
		{"1 late of 4", fill(4, models.AttendanceLate, 1), "0.0", "12.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rate, AttendanceRate(tt.records))
			assert.Equal(t, tt.percent, StudentPercentage(tt.records))
		})
	}
}

func TestSubjectBreakdown(t *testing.T) {
	records := []models.AttendanceRecord{
		rec("s", "math", "2024-01-01", models.AttendancePresent),
		rec("s", "math", "2024-01-02", models.AttendanceLate),
		rec("s", "math", "2024-01-03", models.AttendanceAbsent),
		rec("s", "bio", "2024-01-03", models.AttendancePresent),
		rec("other", "math", "2024-01-03", models.AttendancePresent),
	}
	got := SubjectBreakdown(records, "s", "math")
	assert.Equal(t, Tally{Total: 3, Present: 1, Late: 1, Absent: 1}, got.Tally)
	assert.Equal(t, "50.0", got.Percentage)
	assert.Equal(t, StandingWarning, got.Standing)
	assert.Equal(t, 2, got.Attended())

	empty := SubjectBreakdown(records, "s", "chem")
	assert.Equal(t, "0", empty.Percentage)
	assert.Equal(t, StandingLow, empty.Standing)
}

func TestClassifyStanding(t *testing.T) {
	assert.Equal(t, StandingGood, ClassifyStanding("75.0"))
	assert.Equal(t, StandingWarning, ClassifyStanding("74.9"))
	assert.Equal(t, StandingWarning, ClassifyStanding("50.0"))
	assert.Equal(t, StandingLow, ClassifyStanding("0"))
	assert.Equal(t, StandingLow, ClassifyStanding("n/a"))
}

func TestFacultySubjectsHeuristic(t *testing.T) {
	subjects := []models.Subject{
		{ID: "1", Faculty: "Dr. Jane Smith"},
		{ID: "2", Faculty: "jane smith"},
		{ID: "3", Faculty: "John Doe"},
		{ID: "4", Faculty: ""},
	}
	ids := func(in []models.Subject) []string {
		out := []string{}
		for _, s := range in {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2"}, ids(FacultySubjects(subjects, "Jane Smith")))
	assert.Equal(t, []string{"1", "2", "3"}, ids(FacultySubjects(subjects, "J")), "substring match is loose")
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FacultySubjects(subjects, "")), "empty name matches everything")
}

func TestEligibleStudents(t *testing.T) {
	students := []models.Student{
		{ID: "a", Program: "Engineering", Year: 1},
		{ID: "b", Program: "Engineering", Year: 2},
		{ID: "c", Program: "Pharmacy", Year: 1},
	}
	got := EligibleStudents(students, models.Subject{Program: "Engineering", Year: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Empty(t, EligibleStudents(students, models.Subject{Program: "PG", Year: 1}))
}

func TestProgramSubjectsAndRecordsOn(t *testing.T) {
	subjects := []models.Subject{{ID: "1", Program: "UG"}, {ID: "2", Program: "PG"}}
	assert.Len(t, ProgramSubjects(subjects, "UG"), 1)

	records := []models.AttendanceRecord{
		rec("a", "x", "2024-01-01", models.AttendancePresent),
		rec("b", "x", "2024-01-02", models.AttendancePresent),
	}
	assert.Len(t, RecordsOn(records, "2024-01-02"), 1)
	assert.Empty(t, RecordsOn(records, "2024-01-03"))
}

func TestRecentAttendance(t *testing.T) {
	var records []models.AttendanceRecord
	for day := 1; day <= 15; day++ {
		records = append(records, rec("s", "x", fmt.Sprintf("2024-01-%02d", day), models.AttendancePresent))
	}
	records = append(records, rec("other", "x", "2024-02-01", models.AttendancePresent))

	got := RecentAttendance(records, "s", RecentLimit)
	require.Len(t, got, RecentLimit)
	assert.Equal(t, "2024-01-15", got[0].Date)
	assert.Equal(t, "2024-01-06", got[9].Date)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date)
	}
	assert.Equal(t, "2024-01-01", records[0].Date, "input order untouched")
}

func TestRecentAttendanceUnparsableDatesLast(t *testing.T) {
	records := []models.AttendanceRecord{
		rec("s", "x", "garbage", models.AttendancePresent),
		rec("s", "x", "2023-12-31", models.AttendanceLate),
		rec("s", "y", "2024-03-01", models.AttendanceAbsent),
	}
	got := RecentAttendance(records, "s", RecentLimit)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2024-03-01", "2023-12-31", "garbage"}, []string{got[0].Date, got[1].Date, got[2].Date})
	assert.Empty(t, RecentAttendance(records, "nobody", RecentLimit))
}
