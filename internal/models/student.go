package models

// Student is a learner registered by an administrator.
type Student struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	RollNumber string   `json:"rollNumber"`
	Program    string   `json:"program"`
	Year       int      `json:"year"`
	Subjects   []string `json:"subjects"`
}
