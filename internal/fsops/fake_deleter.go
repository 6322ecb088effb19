package fsops

import "sync"

// FakeDeleter implements Deleter for testing
// Records all delete calls without performing actual deletions
type FakeDeleter struct {
	mu    sync.Mutex
	Calls []string
	// Fail maps a path to the error returned for it.
	Fail map[string]error
}

func (f *FakeDeleter) Remove(path string) error {
	return f.record("rm:", path)
}

func (f *FakeDeleter) RemoveAll(path string) error {
	return f.record("rmall:", path)
}

func (f *FakeDeleter) RemoveLink(path string) error {
	return f.record("rmlink:", path)
}

// Snapshot returns a copy of the recorded calls.
func (f *FakeDeleter) Snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *FakeDeleter) record(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op+path)
	if err, ok := f.Fail[path]; ok {
		return err
	}
	return nil
}
