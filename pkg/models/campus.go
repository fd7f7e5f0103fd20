package models

import "time"

// FeeStatus is the payment state of a fee invoice.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
	FeeStatusWaived  FeeStatus = "waived"
)

// FeeInvoice is a single fee charge against a student.
type FeeInvoice struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	RollNumber  string    `json:"roll_number,omitempty"`
	Semester    string    `json:"semester,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Status      FeeStatus `json:"status"`
	DueDate     time.Time `json:"due_date,omitempty"`
	PaidAt      time.Time `json:"paid_at,omitempty"`
}

// LibraryBook is a catalog entry in the campus library.
type LibraryBook struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	Copies    int    `json:"copies"`
	Available int    `json:"available"`
}

// BookLoan records a book checked out to a user.
type BookLoan struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	BookTitle  string    `json:"book_title,omitempty"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	IssuedAt   time.Time `json:"issued_at,omitempty"`
	DueAt      time.Time `json:"due_at,omitempty"`
	ReturnedAt time.Time `json:"returned_at,omitempty"`
}

// RequestStatus is the review state of a student request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// StudentRequest is a formal request submitted by a student
// (transcript copy, leave of absence, section change, ...).
type StudentRequest struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name,omitempty"`
	Type        string        `json:"type"`
	Subject     string        `json:"subject"`
	Body        string        `json:"body,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
	DecidedAt   time.Time     `json:"decided_at,omitempty"`
}
