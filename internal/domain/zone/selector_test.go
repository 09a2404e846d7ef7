package zone

import "testing"

func strptr(s string) *string { return &s }

func rec(id, name string, state State) Record {
	return Record{ID: id, DisplayName: strptr(name), State: &state}
}

func TestSelectorSelect(t *testing.T) {
	tests := []struct {
		name       string
		priorities []string
		records    []Record
		wantID     string
		wantNone   bool
	}{
		{
			name:       "priority order wins over report order",
			priorities: []string{"Desktop", "Living Room"},
			records: []Record{
				rec("z1", "Living Room", StatePlaying),
				rec("z2", "Desktop", StatePaused),
			},
			wantID: "z2",
		},
		{
			name:       "single match",
			priorities: []string{"Desktop", "Living Room"},
			records:    []Record{rec("z1", "Living Room", StatePlaying)},
			wantID:     "z1",
		},
		{
			name:       "no match",
			priorities: []string{"Desktop"},
			records:    []Record{rec("z1", "Kitchen", StatePlaying)},
			wantNone:   true,
		},
		{
			name:       "empty priority list",
			priorities: nil,
			records:    []Record{rec("z1", "Desktop", StatePlaying)},
			wantNone:   true,
		},
		{
			name:       "empty zone set",
			priorities: []string{"Desktop"},
			records:    nil,
			wantNone:   true,
		},
		{
			name:       "case sensitive match",
			priorities: []string{"Desktop"},
			records:    []Record{rec("z1", "desktop", StatePlaying)},
			wantNone:   true,
		},
		{
			name:       "record without display name ignored",
			priorities: []string{"Desktop"},
			records: []Record{
				{ID: "z1"},
				rec("z2", "Desktop", StatePlaying),
			},
			wantID: "z2",
		},
		{
			name:       "equal priority keeps first reported",
			priorities: []string{"Desktop"},
			records: []Record{
				rec("z1", "Desktop", StatePaused),
				rec("z2", "Desktop", StatePlaying),
			},
			wantID: "z1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(tt.priorities)
			got := sel.Select(tt.records)

			if tt.wantNone {
				if got != nil {
					t.Errorf("expected no selection, got %q", got.ID)
				}
				return
			}

			if got == nil {
				t.Fatal("expected a selection, got nil")
			}
			if got.ID != tt.wantID {
				t.Errorf("selected %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestSelectorDeterministic(t *testing.T) {
	sel := NewSelector([]string{"A", "B", "C"})
	records := []Record{
		rec("z3", "C", StatePlaying),
		rec("z2", "B", StatePlaying),
		rec("z1", "A", StatePlaying),
	}

	for i := 0; i < 10; i++ {
		got := sel.Select(records)
		if got == nil || got.ID != "z1" {
			t.Fatalf("iteration %d: expected z1, got %+v", i, got)
		}
	}
}
