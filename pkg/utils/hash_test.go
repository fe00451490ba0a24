package utils

import "testing"

func TestShortHashOrderIndependent(t *testing.T) {
	a := ShortHash([]string{"/a", "/b", "/c"})
	b := ShortHash([]string{"/c", "/a", "/b"})
	if a != b {
		t.Errorf("ShortHash not order independent: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("ShortHash length = %d, want 16", len(a))
	}
}

func TestShortHashDistinct(t *testing.T) {
	if ShortHash([]string{"/a"}) == ShortHash([]string{"/b"}) {
		t.Error("distinct path sets produced the same hash")
	}
}
