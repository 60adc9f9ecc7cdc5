package identifier

import (
	"strings"
	"testing"
)

func TestPINStaysInRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		pin := PIN()
		if pin < 1000 || pin > 9999 {
			t.Fatalf("PIN() = %d, want value in [1000, 9999]", pin)
		}
	}
}

func TestPINRoughlyUniform(t *testing.T) {
	const samples = 10000
	const buckets = 9 // one per thousand-block 1000..9999

	counts := make([]int, buckets)
	for i := 0; i < samples; i++ {
		counts[(PIN()-1000)/1000]++
	}

	// Chi-square sanity check against uniformity. With 8 degrees of
	// freedom the 99.9th percentile is ~26.1; a correct generator fails
	// this about once in a thousand runs.
	expected := float64(samples) / buckets
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	if chi2 > 26.1 {
		t.Fatalf("chi-square = %.2f over buckets %v, distribution not plausibly uniform", chi2, counts)
	}
}

func TestConversationNameShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := ConversationName()
		parts := strings.Split(name, "-")
		if len(parts) != 3 {
			t.Fatalf("ConversationName() = %q, want three hyphen-joined words", name)
		}
		if !contains(adjectives, parts[0]) || !contains(colors, parts[1]) || !contains(animals, parts[2]) {
			t.Fatalf("ConversationName() = %q, words not drawn from vocabularies", name)
		}
		seen[name] = true
	}
	if len(seen) < 2 {
		t.Fatalf("ConversationName() produced %d distinct names over 100 draws", len(seen))
	}
}

func contains(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}
