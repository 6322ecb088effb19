package scan

import (
	"os"
	"sync"

	"sweeper/internal/models"
)

// task is one directory waiting to be read.
type task struct {
	path  string
	rel   string
	depth int
	// sizeOnly marks the subtree of a matched directory: files are
	// recorded for size aggregation but nothing is classified.
	sizeOnly bool
	// ancestors holds the directories above path; set only when following
	// symlinks, for cycle detection.
	ancestors []os.FileInfo
}

// workStack is an unbounded LIFO shared by all scan workers; any idle
// worker takes the next directory. Pushes never block, so a worker can
// always enqueue children while others wait.
type workStack struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []task
	active int
	closed bool
}

func newWorkStack() *workStack {
	w := &workStack{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *workStack) push(t task) {
	w.mu.Lock()
	w.tasks = append(w.tasks, t)
	w.mu.Unlock()
	w.cond.Signal()
}

// pop blocks until a task is available or the walk is finished.
func (w *workStack) pop() (task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.tasks) == 0 && !w.closed {
		if w.active == 0 {
			w.closed = true
			w.cond.Broadcast()
			break
		}
		w.cond.Wait()
	}
	if len(w.tasks) == 0 {
		return task{}, false
	}
	last := len(w.tasks) - 1
	t := w.tasks[last]
	w.tasks[last] = task{}
	w.tasks = w.tasks[:last]
	w.active++
	return t, true
}

// done marks a popped task finished.
func (w *workStack) done() {
	w.mu.Lock()
	w.active--
	if w.active == 0 && len(w.tasks) == 0 {
		w.closed = true
		w.cond.Broadcast()
	}
	w.mu.Unlock()
}

type fileRecord struct {
	path string
	size int64
}

// partial is one worker's private share of the result.
type partial struct {
	items   []models.CleanItem
	files   []fileRecord
	errors  []models.ScanError
	entries int64
}

// merge combines two partials. Lists concatenate and counters add, so the
// combined content does not depend on grouping or operand order; the
// caller sorts the final lists.
func (p partial) merge(o partial) partial {
	return partial{
		items:   append(p.items[:len(p.items):len(p.items)], o.items...),
		files:   append(p.files[:len(p.files):len(p.files)], o.files...),
		errors:  append(p.errors[:len(p.errors):len(p.errors)], o.errors...),
		entries: p.entries + o.entries,
	}
}

// reduce merges partials pairwise.
func reduce(parts []partial) partial {
	if len(parts) == 0 {
		return partial{}
	}
	for len(parts) > 1 {
		next := make([]partial, 0, (len(parts)+1)/2)
		for i := 0; i < len(parts); i += 2 {
			if i+1 < len(parts) {
				next = append(next, parts[i].merge(parts[i+1]))
			} else {
				next = append(next, parts[i])
			}
		}
		parts = next
	}
	return parts[0]
}
