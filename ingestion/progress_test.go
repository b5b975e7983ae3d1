package ingestion

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "Documenting", 4, 2)

	tracker.Start()
	tracker.Done(true)
	assert.Empty(t, buf.String(), "no report before the interval")

	tracker.Done(false)
	assert.Contains(t, buf.String(), "Documenting: 2/4 (50.0%) - 1 failed")

	tracker.Done(true)
	tracker.Done(true)
	assert.Contains(t, buf.String(), "4/4 (100.0%)")

	done, failed := tracker.Counts()
	assert.Equal(t, 4, done)
	assert.Equal(t, 1, failed)
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "x", 3, 1)

	tracker.Done(true)
	tracker.Finish()

	assert.Empty(t, buf.String())
	done, _ := tracker.Counts()
	assert.Zero(t, done)
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "x", 2, 1)

	tracker.Start()
	for i := 0; i < 5; i++ {
		tracker.Done(true)
	}
	done, _ := tracker.Counts()
	assert.Equal(t, 2, done)
	assert.NotContains(t, buf.String(), "3/2")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "Ingesting", 0, 10)

	tracker.Start()
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "0/0 (0.0%)")
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestProgressTracker_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "x", 100, 10)
	tracker.Start()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Done(i%10 != 0)
		}(i)
	}
	wg.Wait()

	done, failed := tracker.Counts()
	assert.Equal(t, 100, done)
	assert.Equal(t, 10, failed)
}
