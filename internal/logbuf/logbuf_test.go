package logbuf

import (
	"fmt"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Line
	}
	return out
}

func TestBufferKeepsNewest(t *testing.T) {
	buf := New(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(buf, "line %d\n", i)
	}

	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, lines(buf.Recent(0)))
	assert.Equal(t, []string{"line 4", "line 5"}, lines(buf.Recent(2)))
}

func TestBufferJoinsPartialWrites(t *testing.T) {
	buf := New(10)
	buf.Write([]byte("hel"))
	buf.Write([]byte("lo\nwor"))
	assert.Equal(t, []string{"hello"}, lines(buf.Recent(0)))

	buf.Write([]byte("ld\n\n"))
	assert.Equal(t, []string{"hello", "world"}, lines(buf.Recent(0)))
}

func TestBufferAsLogOutput(t *testing.T) {
	buf := New(0)
	logger := log.New(buf, "", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.Printf("request %d", i)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, buf.Len())
	for _, e := range buf.Recent(0) {
		assert.Contains(t, e.Line, "request ")
		assert.False(t, e.Time.IsZero())
	}
}
