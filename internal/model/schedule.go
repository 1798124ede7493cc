package model

import (
	"regexp"
	"strings"
	"time"
)

var deadlinePattern = regexp.MustCompile(`^\d{12}$`)

// Schedule is a time-bound item with a YYYYMMDDHHMM deadline.
type Schedule struct {
	Key       string   `json:"-"`
	Deadline  string   `json:"deadline"`
	Content   string   `json:"content"`
	Priority  Priority `json:"priority"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// Stamp sets both timestamps of a new entry.
func (s *Schedule) Stamp(now string) {
	s.CreatedAt = now
	s.UpdatedAt = now
}

// Touch bumps the update time.
func (s *Schedule) Touch(now string) { s.UpdatedAt = now }

// SetKey records the key the entry is stored under.
func (s *Schedule) SetKey(key string) { s.Key = key }

// ApplyDefaults normalizes a record read from disk. A schedule has no
// default deadline, so a missing one is left for Validate to reject.
func (s *Schedule) ApplyDefaults() {
	if !s.Priority.Valid() {
		s.Priority = DefaultPriority
	}
}

// Validate checks the structural invariants of a schedule.
func (s *Schedule) Validate() error {
	if err := ValidateDeadline(s.Deadline); err != nil {
		return err
	}
	if strings.TrimSpace(s.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if !s.Priority.Valid() {
		return &ValidationError{Field: "priority", Values: []string{string(s.Priority)}, Reason: "must be one of " + strings.Join(PriorityValues(), ", ")}
	}
	return nil
}

// Date returns the YYYYMMDD prefix of the deadline.
func (s *Schedule) Date() string {
	if len(s.Deadline) < len(DateLayout) {
		return s.Deadline
	}
	return s.Deadline[:len(DateLayout)]
}

// ValidateDeadline checks that d is twelve digits naming a real minute.
func ValidateDeadline(d string) error {
	if !deadlinePattern.MatchString(d) {
		return &ValidationError{Field: "deadline", Values: []string{d}, Reason: "must be in YYYYMMDDHHMM format"}
	}
	if _, err := time.Parse(DeadlineLayout, d); err != nil {
		return &ValidationError{Field: "deadline", Values: []string{d}, Reason: "not a valid date and time"}
	}
	return nil
}
