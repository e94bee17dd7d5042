// Package logbuf keeps the most recent log lines in memory for the admin console.
package logbuf

import (
	"strings"
	"sync"
	"time"
)

const defaultCapacity = 100

type Entry struct {
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// Buffer is a fixed-size ring of log lines. It implements io.Writer so it
// can sit behind log.SetOutput; each Write is split into lines.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	partial string
	now     func() time.Time
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{entries: make([]Entry, capacity), now: time.Now}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := b.partial + string(p)
	lines := strings.Split(text, "\n")
	// the last element is an unterminated line, possibly empty
	b.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if line == "" {
			continue
		}
		b.append(line)
	}
	return len(p), nil
}

func (b *Buffer) append(line string) {
	b.entries[b.next] = Entry{Time: b.now(), Line: line}
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// Recent returns up to n of the newest lines, oldest first. n <= 0 returns all.
func (b *Buffer) Recent(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.next
	if b.full {
		size = len(b.entries)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Entry, n)
	start := b.next - n
	if start < 0 {
		start += len(b.entries)
	}
	for i := 0; i < n; i++ {
		out[i] = b.entries[(start+i)%len(b.entries)]
	}
	return out
}
