package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_FiltersMalformedIntervals(t *testing.T) {
	tests := []struct {
		name      string
		intervals []WordInterval
		duration  float64
		expected  []WordInterval
	}{
		{
			name: "all valid",
			intervals: []WordInterval{
				{Word: "hello", Start: 0, End: 0.5},
				{Word: "world", Start: 0.5, End: 1.0},
			},
			duration: 10,
			expected: []WordInterval{
				{Word: "hello", Start: 0, End: 0.5},
				{Word: "world", Start: 0.5, End: 1.0},
			},
		},
		{
			name: "end before start dropped",
			intervals: []WordInterval{
				{Word: "bad", Start: 2, End: 1},
				{Word: "ok", Start: 2, End: 3},
			},
			duration: 10,
			expected: []WordInterval{{Word: "ok", Start: 2, End: 3}},
		},
		{
			name: "zero length dropped",
			intervals: []WordInterval{
				{Word: "bad", Start: 1, End: 1},
			},
			duration: 10,
			expected: []WordInterval{},
		},
		{
			name: "negative start dropped",
			intervals: []WordInterval{
				{Word: "bad", Start: -0.1, End: 1},
				{Word: "ok", Start: 1, End: 2},
			},
			duration: 10,
			expected: []WordInterval{{Word: "ok", Start: 1, End: 2}},
		},
		{
			name: "end past duration dropped",
			intervals: []WordInterval{
				{Word: "ok", Start: 0, End: 1},
				{Word: "bad", Start: 9, End: 10.5},
			},
			duration: 10,
			expected: []WordInterval{{Word: "ok", Start: 0, End: 1}},
		},
		{
			name:      "empty input",
			intervals: nil,
			duration:  10,
			expected:  []WordInterval{},
		},
		{
			name: "empty word kept when timing is valid",
			intervals: []WordInterval{
				{Word: "", Start: 0, End: 1},
			},
			duration: 10,
			expected: []WordInterval{{Word: "", Start: 0, End: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.intervals, tt.duration)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidate_PreservesOrder(t *testing.T) {
	intervals := []WordInterval{
		{Word: "a", Start: 0, End: 1},
		{Word: "bad", Start: 5, End: 4},
		{Word: "b", Start: 1, End: 2},
		{Word: "c", Start: 2, End: 3},
	}

	got := Validate(intervals, 10)

	words := make([]string, 0, len(got))
	for _, iv := range got {
		words = append(words, iv.Word)
	}
	assert.Equal(t, []string{"a", "b", "c"}, words)
}
