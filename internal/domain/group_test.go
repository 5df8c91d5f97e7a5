package domain

import (
	"errors"
	"testing"
)

func ptr(s string) *string { return &s }

func TestNextGroup(t *testing.T) {
	tests := []struct {
		name     string
		current  *string
		selected string
		want     *string
	}{
		{"unassign from selected group", ptr("5"), "5", nil},
		{"move from another group", ptr("3"), "5", ptr("5")},
		{"assign ungrouped row", nil, "5", ptr("5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextGroup(tt.current, tt.selected)
			if !SameGroup(got, tt.want) {
				t.Errorf("NextGroup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameGroup(t *testing.T) {
	if !SameGroup(nil, nil) {
		t.Error("expected nil groups to be equal")
	}
	if SameGroup(ptr("1"), nil) || SameGroup(nil, ptr("1")) {
		t.Error("expected nil and set groups to differ")
	}
	if !SameGroup(ptr("1"), ptr("1")) {
		t.Error("expected equal ids to match")
	}
}

func TestTransactionGroup_Validate(t *testing.T) {
	g := &TransactionGroup{ClientID: "c1", Name: "Urgent", Color: "#f00"}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected valid group, got %v", err)
	}

	g.Color = "red"
	if err := g.Validate(); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}

	g.Color = "#ff0000"
	g.ClientID = ""
	if err := g.Validate(); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for missing client, got %v", err)
	}
}
