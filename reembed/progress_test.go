package reembed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 100, 10)
	tracker.Start()

	tracker.Update(5)
	assert.Empty(t, out.String())

	tracker.Update(10)
	assert.Contains(t, out.String(), "10/100")

	tracker.Finish()
	assert.Contains(t, out.String(), "100/100")
	assert.Contains(t, out.String(), "100.0%")
}

func TestProgressTracker_IncrementCapsAtTotal(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 1)
	tracker.Start()

	tracker.Increment(7)
	tracker.Increment(7)
	assert.Contains(t, out.String(), "10/10")
}

func TestProgressTracker_NoopBeforeStart(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 10, 1)

	tracker.Update(5)
	tracker.Finish()
	assert.Empty(t, out.String())
	assert.Zero(t, tracker.Elapsed())
}
