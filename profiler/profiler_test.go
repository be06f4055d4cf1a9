package profiler

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickLogsAfterInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(time.Hour)
	p.SetLogger(log.New(&buf, "", 0))

	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
	assert.Empty(t, buf.String())

	p.Flush()
	assert.Contains(t, buf.String(), "[Profiler] Shaders: 2")
	assert.Equal(t, 2, p.Total())
}

func TestTickIsSafeForConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(0)
	p.SetLogger(log.New(&buf, "", 0))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.Tick()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, p.Total())
}
