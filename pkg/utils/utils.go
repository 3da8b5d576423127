package utils

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"lens-viewer/pkg/backend"
)

type ThreadCount struct {
	ThreadID int32
	Count    int
}

// SortThreadsByZoneCount sorts threads by zone count (descending), then by id (ascending)
func SortThreadsByZoneCount(zonesByThread map[int32][]backend.Zone) []ThreadCount {
	var threadCounts []ThreadCount
	for id, zones := range zonesByThread {
		threadCounts = append(threadCounts, ThreadCount{ThreadID: id, Count: len(zones)})
	}

	sort.Slice(threadCounts, func(i, j int) bool {
		if threadCounts[i].Count == threadCounts[j].Count {
			return threadCounts[i].ThreadID < threadCounts[j].ThreadID
		}
		return threadCounts[i].Count > threadCounts[j].Count
	})

	return threadCounts
}

// FormatNumber formats a number with comma separators for readability
func FormatNumber(n uint64) string {
	str := strconv.FormatUint(n, 10)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// FormatSeconds renders a trace time in the largest unit that keeps it at
// or above one: s, ms, µs or ns.
func FormatSeconds(t float64) string {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Sprint(t)
	}
	abs := math.Abs(t)
	switch {
	case abs >= 1:
		return fmt.Sprintf("%.3f s", t)
	case abs >= 1e-3:
		return fmt.Sprintf("%.3f ms", t*1e3)
	case abs >= 1e-6:
		return fmt.Sprintf("%.3f µs", t*1e6)
	default:
		return fmt.Sprintf("%.0f ns", t*1e9)
	}
}
