package pricing

import "testing"

func TestToMinorExactConversions(t *testing.T) {
	cases := []struct {
		major float64
		want  Money
	}{
		{300.00, 30000},
		{19.99, 1999},
		{0.125, 13}, // half up
		{0.01, 1},
		{0, 0},
		{-12.5, -1250},
	}
	for _, c := range cases {
		if got := ToMinor(c.major); got != c.want {
			t.Fatalf("ToMinor(%v) = %d, want %d", c.major, got, c.want)
		}
	}
}

func TestPercentOf(t *testing.T) {
	if got := PercentOf(100000, 25); got != 25000 {
		t.Fatalf("expected 25000, got %d", got)
	}
	if got := PercentOf(333, 50); got != 167 { // 166.5 rounds up
		t.Fatalf("expected 167, got %d", got)
	}
	if got := PercentOf(-1000, 25); got != -250 {
		t.Fatalf("expected -250, got %d", got)
	}
	if got := PercentOf(100, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestClampPercent(t *testing.T) {
	if got := ClampPercent(-5); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ClampPercent(150); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := ClampPercent(42.5); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}
