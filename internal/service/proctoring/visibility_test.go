package proctoring

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/internal/models"
)

type channelVisibility struct {
	events chan bool
}

func (c *channelVisibility) Events() <-chan bool { return c.events }

type violationCollector struct {
	mu         sync.Mutex
	violations []models.Violation
}

func (c *violationCollector) collect(v models.Violation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.violations = append(c.violations, v)
}

func (c *violationCollector) snapshot() []models.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Violation, len(c.violations))
	copy(out, c.violations)
	return out
}

func TestWatcherEmitsPerHiddenTransition(t *testing.T) {
	source := &channelVisibility{events: make(chan bool, 8)}
	collector := &violationCollector{}
	watcher := NewVisibilityWatcher(source, "s-1", "a-1", collector.collect, zerolog.Nop())

	watcher.Start()
	defer watcher.Stop()

	// hidden, visible again, hidden: two violations
	source.events <- true
	source.events <- false
	source.events <- true

	require.Eventually(t, func() bool { return len(collector.snapshot()) == 2 },
		time.Second, time.Millisecond)

	for _, v := range collector.snapshot() {
		assert.Equal(t, models.ViolationTabSwitch, v.Type)
		assert.Equal(t, models.SeverityLow, v.Severity)
		assert.Equal(t, "s-1", v.SessionID)
	}

	// becoming visible never counts
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, collector.snapshot(), 2)
}
