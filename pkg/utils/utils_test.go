package utils

import (
	"math"
	"testing"

	"lens-viewer/pkg/backend"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
	}

	for _, test := range tests {
		result := FormatNumber(test.input)
		if result != test.expected {
			t.Errorf("FormatNumber(%d) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{12.5, "12.500 s"},
		{1, "1.000 s"},
		{0.25, "250.000 ms"},
		{0.0015, "1.500 ms"},
		{0.000042, "42.000 µs"},
		{0.000000017, "17 ns"},
		{0, "0 ns"},
		{-0.5, "-500.000 ms"},
		{math.Inf(1), "+Inf"},
	}

	for _, test := range tests {
		result := FormatSeconds(test.input)
		if result != test.expected {
			t.Errorf("FormatSeconds(%v) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestSortThreadsByZoneCount(t *testing.T) {
	input := map[int32][]backend.Zone{
		1: make([]backend.Zone, 3),
		7: make([]backend.Zone, 1),
		6: make([]backend.Zone, 5),
		3: make([]backend.Zone, 1),
		9: {},
	}

	result := SortThreadsByZoneCount(input)

	expected := []ThreadCount{
		{ThreadID: 6, Count: 5},
		{ThreadID: 1, Count: 3},
		{ThreadID: 3, Count: 1},
		{ThreadID: 7, Count: 1},
		{ThreadID: 9, Count: 0},
	}

	if len(result) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(result))
	}

	for i, exp := range expected {
		if result[i] != exp {
			t.Errorf("Position %d: expected %+v, got %+v", i, exp, result[i])
		}
	}
}
