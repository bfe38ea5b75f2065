package quote

import "testing"

func TestPicker_RandomUsesIndexSource(t *testing.T) {
	p := &Picker{quotes: []string{"a", "b", "c"}, intN: func(n int) int { return n - 1 }}
	if got := p.Random(); got != "c" {
		t.Errorf("Random() = %q, want c", got)
	}
}

func TestPicker_EmptyList(t *testing.T) {
	p := &Picker{intN: func(int) int {
		t.Fatal("intN must not be called for an empty list")
		return 0
	}}
	if got := p.Random(); got != "" {
		t.Errorf("Random() = %q, want empty", got)
	}
}

func TestNewPicker_ReturnsKnownQuote(t *testing.T) {
	p := NewPicker()
	if p.Count() != 20 {
		t.Errorf("Count() = %d, want 20", p.Count())
	}
	known := make(map[string]bool, len(defaultQuotes))
	for _, q := range defaultQuotes {
		known[q] = true
	}
	for i := 0; i < 50; i++ {
		if q := p.Random(); !known[q] {
			t.Fatalf("Random() returned unknown quote %q", q)
		}
	}
}
