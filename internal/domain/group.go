package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionGroup is a client-scoped, color-tagged bucket of transactions.
type TransactionGroup struct {
	ID        string
	ClientID  string
	Name      string
	Color     string
	Note      string
	CreatedAt time.Time
}

// Validate checks the group fields.
func (g *TransactionGroup) Validate() error {
	if strings.TrimSpace(g.ClientID) == "" {
		return fmt.Errorf("%w: group needs an owning client", ErrInvalidName)
	}
	if err := ValidateName(g.Name); err != nil {
		return err
	}
	if len(g.Note) > MaxNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidName, MaxNoteLength)
	}
	return ValidateColor(g.Color)
}

// GroupChangeStatus is the outcome discriminator of a membership update.
type GroupChangeStatus string

const (
	GroupChangeSuccess GroupChangeStatus = "success"
	GroupChangeWarning GroupChangeStatus = "warning"
	GroupChangeError   GroupChangeStatus = "error"
)

// GroupChangeResult is reported to the operator verbatim.
type GroupChangeResult struct {
	Result  GroupChangeStatus
	Message string
	// GroupID is the membership after the update attempt.
	GroupID *string
}

// NextGroup is the toggle rule: clicking a row while selected is active
// unassigns it if it already belongs to selected and assigns it otherwise.
func NextGroup(current *string, selected string) *string {
	if current != nil && *current == selected {
		return nil
	}
	next := selected
	return &next
}

// SameGroup reports whether two optional group ids are equal.
func SameGroup(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
