package syncer

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

const diagramPreamble = "### Current diagram state (JSON)\n" +
	"Use this as the authoritative UI state for the ongoing system design.\n\n"

// SnapshotFunc returns the current diagram state. The detector never
// mutates the returned snapshot.
type SnapshotFunc func() models.DiagramSnapshot

// Sender pushes a contextual update over the one-way side channel.
type Sender interface {
	SendContextualUpdate(text string) error
}

// ChangeDetector polls the diagram and pushes the full snapshot once the
// state has settled: it fires only when the newest two history slots agree
// and differ from the oldest. Rapid edit bursts produce a single push.
type ChangeDetector struct {
	interval time.Duration
	snapshot SnapshotFunc
	sender   Sender
	logger   zerolog.Logger

	mu sync.Mutex
	// ring of serialized states: [0] two ticks ago, [1] one tick ago, [2] current
	history [3]string

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewChangeDetector(interval time.Duration, snapshot SnapshotFunc, sender Sender, logger zerolog.Logger) *ChangeDetector {
	return &ChangeDetector{
		interval: interval,
		snapshot: snapshot,
		sender:   sender,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start seeds the history with the current state and begins polling. A
// diagram that never changes afterwards never fires.
func (d *ChangeDetector) Start() {
	key := snapshotKey(d.snapshot())

	d.mu.Lock()
	d.history = [3]string{key, key, key}
	d.mu.Unlock()

	go d.loop()
}

func (d *ChangeDetector) loop() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.check()
		}
	}
}

func (d *ChangeDetector) check() {
	snap := d.snapshot()
	key := snapshotKey(snap)

	d.mu.Lock()
	d.history[0] = d.history[1]
	d.history[1] = d.history[2]
	d.history[2] = key
	fire := d.history[0] != d.history[1] && d.history[1] == d.history[2] && d.history[2] != ""
	d.mu.Unlock()

	if fire {
		d.push(snap)
	}
}

// PushNow sends the current state regardless of stability.
func (d *ChangeDetector) PushNow() {
	d.push(d.snapshot())
}

func (d *ChangeDetector) push(snap models.DiagramSnapshot) {
	snap.Timestamp = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to serialize diagram snapshot")
		return
	}

	if err := d.sender.SendContextualUpdate(diagramPreamble + string(payload)); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to push diagram update")
		return
	}

	d.logger.Debug().
		Int("nodes", len(snap.Nodes)).
		Int("edges", len(snap.Edges)).
		Msg("Diagram update pushed")
}

func (d *ChangeDetector) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

// snapshotKey serializes a snapshot without its timestamp so identical
// states compare equal across ticks.
func snapshotKey(snap models.DiagramSnapshot) string {
	snap.Timestamp = ""
	data, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(data)
}
