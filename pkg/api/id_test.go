package api

import (
	"testing"
)

func TestNewLeadID(t *testing.T) {
	id := NewLeadID()
	if !ValidateLeadID(id) {
		t.Errorf("NewLeadID() = %q, want valid lead ID", id)
	}
}

func TestNewLeadID_Sortable(t *testing.T) {
	prev := NewLeadID()
	for i := 0; i < 100; i++ {
		next := NewLeadID()
		if next <= prev {
			t.Fatalf("ID %q not greater than previous %q", next, prev)
		}
		prev = next
	}
}

func TestValidateLeadID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "lead_01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"wrong prefix", "item_01ARZ3NDEKTSV4RRFFQ69G5FAV", false},
		{"no prefix", "01ARZ3NDEKTSV4RRFFQ69G5FAV", false},
		{"too short", "lead_01ARZ3", false},
		{"bad chars", "lead_01ARZ3NDEKTSV4RRFFQ69G5FA!", false},
		{"empty", "", false},
		{"prefix only", "lead_", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateLeadID(tt.id); got != tt.want {
				t.Errorf("ValidateLeadID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
