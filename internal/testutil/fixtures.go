package testutil

import (
	"github.com/google/uuid"

	"github.com/veracampus/campushub/pkg/models"
)

// NewCourse returns a Course with sensible defaults, suitable for test fixtures.
// Override individual fields after creation as needed.
func NewCourse(opts ...func(*models.Course)) models.Course {
	c := models.Course{
		ID:          uuid.New().String(),
		Code:        "CS-101",
		Name:        "Introduction to Computing",
		Semester:    "Fall 2024",
		CreditHours: 3,
		Section:     "A",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithCode sets the course code.
func WithCode(code string) func(*models.Course) {
	return func(c *models.Course) { c.Code = code }
}

// WithSemester sets the course semester.
func WithSemester(s string) func(*models.Course) {
	return func(c *models.Course) { c.Semester = s }
}

// WithTeacher assigns the course to a teacher.
func WithTeacher(id, name string) func(*models.Course) {
	return func(c *models.Course) {
		c.TeacherID = id
		c.TeacherName = name
	}
}

// NewTeacher returns a Teacher fixture.
func NewTeacher(opts ...func(*models.Teacher)) models.Teacher {
	t := models.Teacher{
		User: models.User{
			ID:    uuid.New().String(),
			Name:  "Test Teacher",
			Email: "teacher@example.edu",
			Role:  models.RoleTeacher,
		},
		Profile: models.TeacherProfile{
			Department:  "Computer Science",
			Designation: "Lecturer",
		},
	}
	t.Profile.UserID = t.ID
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// WithTeacherName sets the teacher's display name.
func WithTeacherName(name string) func(*models.Teacher) {
	return func(t *models.Teacher) { t.Name = name }
}

// WithDepartment sets the teacher's department.
func WithDepartment(dep string) func(*models.Teacher) {
	return func(t *models.Teacher) { t.Profile.Department = dep }
}

// NewStudent returns a Student fixture.
func NewStudent(opts ...func(*models.Student)) models.Student {
	s := models.Student{
		User: models.User{
			ID:    uuid.New().String(),
			Name:  "Test Student",
			Email: "student@example.edu",
			Role:  models.RoleStudent,
		},
		Profile: models.StudentProfile{
			RollNumber: "F24-0001",
			Program:    "BSCS",
			Semester:   "Fall 2024",
			Section:    "A",
		},
	}
	s.Profile.UserID = s.ID
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithRollNumber sets the student's roll number.
func WithRollNumber(rn string) func(*models.Student) {
	return func(s *models.Student) { s.Profile.RollNumber = rn }
}

// WithSection sets the student's section.
func WithSection(sec string) func(*models.Student) {
	return func(s *models.Student) { s.Profile.Section = sec }
}
