package models

// Subject is a course offered to one program and year.
//
// Faculty is free text. It links a subject to the faculty session whose
// display name matches it, see stats.FacultySubjects.
type Subject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Program string `json:"program"`
	Year    int    `json:"year"`
	Faculty string `json:"faculty"`
}
