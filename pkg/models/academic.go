package models

import "time"

// Course is a catalog entry offered in a given semester.
type Course struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Semester    string `json:"semester"`
	CreditHours int    `json:"credit_hours,omitempty"`
	TeacherID   string `json:"teacher_id,omitempty"`
	TeacherName string `json:"teacher_name,omitempty"`
	Section     string `json:"section,omitempty"`
}

// Enrollment links a student to a course section.
type Enrollment struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	RollNumber  string    `json:"roll_number,omitempty"`
	CourseID    string    `json:"course_id"`
	CourseCode  string    `json:"course_code,omitempty"`
	CourseName  string    `json:"course_name,omitempty"`
	Section     string    `json:"section,omitempty"`
	Semester    string    `json:"semester,omitempty"`
	EnrolledAt  time.Time `json:"enrolled_at,omitempty"`
}

// TimetableEntry is one scheduled meeting of a course section.
type TimetableEntry struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	CourseName string `json:"course_name,omitempty"`
	Section    string `json:"section,omitempty"`
	Day        string `json:"day"` // "Monday" .. "Sunday", as the backend sends it.
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Room       string `json:"room,omitempty"`
	TeacherID  string `json:"teacher_id,omitempty"`
}

// Result is a graded outcome for one student in one course.
type Result struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name,omitempty"`
	RollNumber  string  `json:"roll_number,omitempty"`
	CourseID    string  `json:"course_id"`
	CourseCode  string  `json:"course_code,omitempty"`
	Semester    string  `json:"semester,omitempty"`
	Marks       float64 `json:"marks"`
	TotalMarks  float64 `json:"total_marks"`
	Grade       string  `json:"grade,omitempty"`
}
