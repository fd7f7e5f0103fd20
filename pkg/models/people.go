package models

import "time"

// Role identifies what a portal user is allowed to see and do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is the account record shared by every person in the system.
// Role-specific attributes live in TeacherProfile / StudentProfile.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Disabled  bool      `json:"disabled,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// TeacherProfile holds the teacher-specific half of a teacher record.
// The backend stores it separately from the account record, so updates
// touching both halves require two sequential calls.
type TeacherProfile struct {
	UserID      string `json:"user_id"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
	Office      string `json:"office,omitempty"`
}

// Teacher is the flattened view the backend returns from /users?role=teacher:
// the account record with its profile embedded.
type Teacher struct {
	User
	Profile TeacherProfile `json:"profile"`
}

// StudentProfile holds the student-specific half of a student record.
type StudentProfile struct {
	UserID     string `json:"user_id"`
	RollNumber string `json:"roll_number,omitempty"`
	Program    string `json:"program,omitempty"`
	Semester   string `json:"semester,omitempty"`
	Section    string `json:"section,omitempty"`
}

// Student is the flattened view returned from /users?role=student.
type Student struct {
	User
	Profile StudentProfile `json:"profile"`
}
