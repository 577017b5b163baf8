package storage

import (
	"testing"

	"github.com/rhuss/citygate/pkg/api"
)

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{1, 1},
		{50, 50},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		if got := (ListOptions{Limit: tt.limit}).EffectiveLimit(); got != tt.want {
			t.Errorf("EffectiveLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestNewLeadList(t *testing.T) {
	empty := NewLeadList(nil, false)
	if empty.Data == nil {
		t.Error("empty list Data should be non-nil so it encodes as []")
	}
	if empty.Object != "list" || empty.FirstID != "" || empty.LastID != "" {
		t.Errorf("empty list = %+v", empty)
	}

	page := []*api.Lead{{ID: "lead_a"}, {ID: "lead_b"}, {ID: "lead_c"}}
	list := NewLeadList(page, true)
	if list.FirstID != "lead_a" || list.LastID != "lead_c" || !list.HasMore {
		t.Errorf("list = %+v, want first lead_a last lead_c has_more", list)
	}
}
