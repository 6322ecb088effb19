package progress

import (
	"sync"

	"sweeper/internal/models"
)

// TallyRow is one category line of a summary.
type TallyRow struct {
	Category models.Category
	Count    int
	Bytes    int64
}

// Tally counts items and bytes per category.
type Tally struct {
	mu    sync.Mutex
	count map[models.Category]int
	bytes map[models.Category]int64
}

func NewTally() *Tally {
	return &Tally{
		count: make(map[models.Category]int),
		bytes: make(map[models.Category]int64),
	}
}

func (t *Tally) Add(it models.CleanItem) {
	t.mu.Lock()
	t.count[it.Match.Category]++
	t.bytes[it.Match.Category] += it.Size
	t.mu.Unlock()
}

func (t *Tally) AddAll(items []models.CleanItem) {
	for _, it := range items {
		t.Add(it)
	}
}

// Rows returns non-empty categories in display order.
func (t *Tally) Rows() []TallyRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rows []TallyRow
	for _, cat := range models.Categories {
		if n := t.count[cat]; n > 0 {
			rows = append(rows, TallyRow{Category: cat, Count: n, Bytes: t.bytes[cat]})
		}
	}
	return rows
}
