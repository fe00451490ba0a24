package utils

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{3000000, "2.86 MB"},
		{5 * GB, "5.00 GB"},
		{2 * TB, "2.00 TB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestSumSizes(t *testing.T) {
	if got := SumSizes([]int64{1, 2, 3}); got != 6 {
		t.Errorf("SumSizes = %d, want 6", got)
	}
	if got := SumSizes(nil); got != 0 {
		t.Errorf("SumSizes(nil) = %d, want 0", got)
	}
}
