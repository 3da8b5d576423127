// Package intern holds the id to string tables the backend sends alongside
// zone data. Ids are only ever added or overwritten, never removed.
package intern

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Placeholder is shown for ids the server has not sent a string for yet.
const Placeholder = "???"

type Table struct {
	entries *xsync.MapOf[int32, string]
}

func NewTable() *Table {
	return &Table{entries: xsync.NewMapOf[int32, string]()}
}

// Intern stores value under id, replacing any previous value.
func (t *Table) Intern(id int32, value string) {
	t.entries.Store(id, value)
}

// Merge unions m into the table. Merging the same map twice is a no-op.
func (t *Table) Merge(m map[int32]string) {
	for id, v := range m {
		t.entries.Store(id, v)
	}
}

func (t *Table) Resolve(id int32) (string, bool) {
	return t.entries.Load(id)
}

func (t *Table) ResolveOr(id int32, fallback string) string {
	if v, ok := t.entries.Load(id); ok {
		return v
	}
	return fallback
}

func (t *Table) Len() int {
	return t.entries.Size()
}

// Snapshot returns a copy of the table.
func (t *Table) Snapshot() map[int32]string {
	out := make(map[int32]string, t.entries.Size())
	t.entries.Range(func(id int32, v string) bool {
		out[id] = v
		return true
	})
	return out
}

// IDs returns every known id in ascending order.
func (t *Table) IDs() []int32 {
	ids := make([]int32, 0, t.entries.Size())
	t.entries.Range(func(id int32, _ string) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
