// Package model defines the Task and Event records tracked by taskwire,
// along with the request payloads accepted by the HTTP API.
//
// Records are flat JSON documents with server-assigned identifiers and
// timestamps. The owner reference is always a plain string user ID, both
// in storage and on the wire.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Task is a single to-do item owned by one user.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Event is a calendar entry owned by one user. Start and end dates are
// both required but start <= end is not enforced.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Recurrence  string    `json:"recurrence,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateTaskInput is the POST /api/tasks request body.
type CreateTaskInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required"`
}

// UpdateTaskInput is the PUT /api/tasks/{id} request body.
// Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   *bool   `json:"completed"`
}

// CreateEventInput is the POST /api/events request body.
type CreateEventInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Recurrence  string `json:"recurrence"`
}

// UpdateEventInput is the PUT /api/events/{id} request body.
// Nil fields are left unchanged.
type UpdateEventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Recurrence  *string `json:"recurrence"`
}

var validate = validator.New()

// dateFormats are the accepted input layouts for date fields, tried in order.
var dateFormats = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a date field from a request payload.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Validate checks required fields and date syntax.
func (in *CreateTaskInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("please provide title and due date")
	}
	if _, err := ParseDate(in.DueDate); err != nil {
		return fmt.Errorf("invalid due date")
	}
	return nil
}

// Validate checks date syntax on any supplied date field.
func (in *UpdateTaskInput) Validate() error {
	if in.Title != nil && *in.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if in.DueDate != nil {
		if _, err := ParseDate(*in.DueDate); err != nil {
			return fmt.Errorf("invalid due date")
		}
	}
	return nil
}

// Validate checks required fields and date syntax.
func (in *CreateEventInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("please provide title, start date, and end date")
	}
	if _, err := ParseDate(in.StartDate); err != nil {
		return fmt.Errorf("invalid start date")
	}
	if _, err := ParseDate(in.EndDate); err != nil {
		return fmt.Errorf("invalid end date")
	}
	return nil
}

// Validate checks date syntax on any supplied date field.
func (in *UpdateEventInput) Validate() error {
	if in.Title != nil && *in.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if in.StartDate != nil {
		if _, err := ParseDate(*in.StartDate); err != nil {
			return fmt.Errorf("invalid start date")
		}
	}
	if in.EndDate != nil {
		if _, err := ParseDate(*in.EndDate); err != nil {
			return fmt.Errorf("invalid end date")
		}
	}
	return nil
}

// NewID returns a server-assigned record identifier: 24 hex characters.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(b[:])
}
