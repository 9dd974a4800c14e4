package store

import "testing"

func TestAvailable(t *testing.T) {
	tests := []struct {
		name  string
		stock int32
		sold  int32
		want  bool
	}{
		{"untouched stock", 100, 0, true},
		{"well above threshold", 10, 8, true},
		{"exactly at threshold", 10, 9, false},
		{"sold out", 10, 10, false},
		{"oversold", 10, 12, false},
		{"zero stock", 0, 0, false},
		{"large stock above threshold", 1000, 899, true},
		{"large stock at threshold", 1000, 900, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Available(tt.stock, tt.sold); got != tt.want {
				t.Errorf("Available(%d, %d) = %v, want %v", tt.stock, tt.sold, got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	item := MenuItem{Stock: 25, Sold: 7}
	if got := item.Remaining(); got != 18 {
		t.Errorf("Remaining() = %d, want 18", got)
	}
}
