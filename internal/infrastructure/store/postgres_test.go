package store

import "testing"

func TestInstockTable(t *testing.T) {
	tests := []struct {
		name    string
		outlet  string
		want    string
		wantErr bool
	}{
		{"plain outlet", "nagornaya", "instock_nagornaya", false},
		{"underscored outlet", "outlet_2", "instock_outlet_2", false},
		{"uppercase rejected", "Nagornaya", "", true},
		{"leading digit rejected", "2outlet", "", true},
		{"sql injection rejected", "x; DROP TABLE products", "", true},
		{"empty rejected", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InstockTable(tt.outlet)
			if tt.wantErr {
				if err == nil {
					t.Errorf("InstockTable(%q) error = nil, want error", tt.outlet)
				}
				return
			}
			if err != nil {
				t.Fatalf("InstockTable(%q) error = %v", tt.outlet, err)
			}
			if got != tt.want {
				t.Errorf("InstockTable(%q) = %q, want %q", tt.outlet, got, tt.want)
			}
		})
	}
}
