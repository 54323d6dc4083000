// Package memory implements the repository interfaces on process-local
// tables. Nothing survives a restart.
package memory

// table is an append-only vector of rows with an id index.
// It is not safe for concurrent use; callers hold their own lock.
type table[T any] struct {
	rows  []T
	index map[int64]int
}

func newTable[T any]() *table[T] {
	return &table[T]{index: make(map[int64]int)}
}

// nextID follows the count+1 rule. Rows are never removed, so ids stay unique.
func (t *table[T]) nextID() int64 {
	return int64(len(t.rows)) + 1
}

func (t *table[T]) insert(id int64, row T) {
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
}

// get returns a pointer into the table, valid only while the caller's lock is held.
func (t *table[T]) get(id int64) (*T, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return &t.rows[i], true
}

func (t *table[T]) len() int {
	return len(t.rows)
}

// each visits rows in insertion order until fn returns false.
func (t *table[T]) each(fn func(*T) bool) {
	for i := range t.rows {
		if !fn(&t.rows[i]) {
			return
		}
	}
}

// eachReverse visits rows newest first until fn returns false.
func (t *table[T]) eachReverse(fn func(*T) bool) {
	for i := len(t.rows) - 1; i >= 0; i-- {
		if !fn(&t.rows[i]) {
			return
		}
	}
}
