package logging

import "sync"

// Entry is a recorded log line
type Entry struct {
	Message string
	Level   Level
}

// Recorder is an in-memory Sink, mostly useful in tests
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Log implements Sink
func (r *Recorder) Log(message string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Level: level})
}

// Entries returns a copy of everything logged so far
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the messages logged at the given level
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
