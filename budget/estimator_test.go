package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicEstimator_Estimate(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
		{"héllo", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Estimate(tt.text), "Estimate(%q)", tt.text)
	}
}

func TestHeuristicEstimator_Deterministic(t *testing.T) {
	e := NewEstimator()
	text := strings.Repeat("func main() {}\n", 50)
	assert.Equal(t, e.Estimate(text), e.Estimate(text))
}

func TestHeuristicEstimator_MonotonicConcat(t *testing.T) {
	e := NewEstimator()
	samples := []string{"", "a", "abc", "hello world", strings.Repeat("z", 1001), "ünïcödé"}
	for _, a := range samples {
		for _, b := range samples {
			ab := e.Estimate(a + b)
			assert.GreaterOrEqual(t, ab, e.Estimate(a))
			assert.GreaterOrEqual(t, ab, e.Estimate(b))
		}
	}
}

func TestHeuristicEstimator_Truncate(t *testing.T) {
	e := NewEstimator()

	text := strings.Repeat("abcd", 10)
	assert.Equal(t, text, e.Truncate(text, 10))
	assert.Equal(t, "abcdabcd", e.Truncate(text, 2))
	assert.Equal(t, "", e.Truncate(text, 0))

	// Never splits a multi-byte rune
	truncated := e.Truncate("ééééééééé", 2)
	assert.Equal(t, "éééééééé", truncated)
	assert.LessOrEqual(t, e.Estimate(truncated), 2)
}

func TestHeuristicEstimator_ZeroRatioUsesDefault(t *testing.T) {
	var e HeuristicEstimator
	assert.Equal(t, 1, e.Estimate("abcd"))
}
