package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"devhud/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePainter records every repaint so tests can follow the state as the
// router processes events.
type capturePainter struct {
	snapshots chan Snapshot
}

func newCapturePainter() *capturePainter {
	return &capturePainter{snapshots: make(chan Snapshot, 256)}
}

func (p *capturePainter) Repaint(snap Snapshot) {
	p.snapshots <- snap
}

func (p *capturePainter) next(t *testing.T) Snapshot {
	t.Helper()
	select {
	case snap := <-p.snapshots:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for repaint")
		return Snapshot{}
	}
}

func newTestRouter(t *testing.T) (*Router, events.Bus, *capturePainter) {
	t.Helper()
	state := NewState("")
	bus := events.NewBus()
	painter := newCapturePainter()
	router := NewRouter(state, bus, painter)
	t.Cleanup(bus.Close)
	return router, bus, painter
}

func TestRouter_RepaintsAfterEveryEvent(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()
	defer router.Stop()

	bus.Publish(events.NewWorkerStartEvent("compiler", nil))
	snap := painter.next(t)
	require.Len(t, snap.Workers, 1)

	bus.Publish(events.NewWorkerMessageEvent("compiler", "hello\n"))
	snap = painter.next(t)
	assert.Equal(t, "hello\n", snap.Workers[0].Output)

	bus.Publish(events.NewWorkerCompleteEvent("compiler", nil))
	snap = painter.next(t)
	assert.True(t, snap.Workers[0].Done)
}

func TestRouter_WorkerLifecycleThroughBus(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()
	defer router.Stop()

	failure := errors.New("compile failed")

	bus.Publish(events.NewWorkerStartEvent("compiler", nil))
	bus.Publish(events.NewWorkerMessageEvent("compiler", "a"))
	bus.Publish(events.NewWorkerMessageEvent("compiler", "b"))
	bus.Publish(events.NewWorkerUpdateEvent("compiler", &events.Phase{Label: "LINKING", Color: "cyan"}))
	bus.Publish(events.NewWorkerCompleteEvent("compiler", failure))

	var snap Snapshot
	for i := 0; i < 5; i++ {
		snap = painter.next(t)
	}

	require.Len(t, snap.Workers, 1)
	w := snap.Workers[0]
	assert.Equal(t, "ab", w.Output)
	assert.True(t, w.Done)
	assert.Equal(t, failure, w.Err)
	assert.Equal(t, "DONE", w.Phase.Label)
}

func TestRouter_WorkerResetThroughBus(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()
	defer router.Stop()

	bus.Publish(events.NewWorkerMessageEvent("compiler", "junk"))
	bus.Publish(events.NewWorkerResetEvent("compiler"))

	painter.next(t)
	snap := painter.next(t)

	require.Len(t, snap.Workers, 1)
	assert.Empty(t, snap.Workers[0].Output)
	assert.Nil(t, snap.Workers[0].Phase)
}

func TestRouter_FileBuildAndServerStart(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()
	defer router.Stop()

	bus.Publish(events.NewFileBuildEvent("src/a.js", true))
	snap := painter.next(t)
	assert.True(t, snap.Building)

	bus.Publish(events.NewServerStartEvent(412, "localhost", 3000, "http", []string{"127.0.0.1"}))
	snap = painter.next(t)
	assert.True(t, snap.Server.Started())
	assert.Equal(t, 3000, snap.Server.Port)

	bus.Publish(events.NewFileBuildEvent("src/a.js", false))
	snap = painter.next(t)
	assert.False(t, snap.Building)
}

func TestRouter_InstallCompleteDefersReset(t *testing.T) {
	router, bus, painter := newTestRouter(t)

	// Fire deferred functions immediately but record the requested delay.
	var scheduledDelay time.Duration
	router.schedule = func(d time.Duration, fn func()) {
		scheduledDelay = d
		fn()
	}

	router.Start()
	defer router.Stop()

	bus.Publish(events.NewMissingModuleEvent("a.js", &events.ModuleRef{Spec: "x", PkgName: "x"}))
	bus.Publish(events.NewInstallStartEvent())
	bus.Publish(events.NewConsoleLogEvent("log", "fetching"))
	painter.next(t)
	painter.next(t)
	snap := painter.next(t)
	assert.True(t, snap.Installing)
	assert.Equal(t, "fetching", snap.InstallOutput)

	bus.Publish(events.NewInstallCompleteEvent())

	// install-complete repaint, then the re-queued install-reset repaint.
	painter.next(t)
	snap = painter.next(t)

	assert.Equal(t, 2*time.Second, scheduledDelay)
	assert.False(t, snap.Installing)
	assert.Empty(t, snap.InstallOutput)
	assert.Empty(t, snap.ConsoleOutput)
	assert.Nil(t, snap.Prompt)
}

func TestRouter_ConsoleLogRouting(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()
	defer router.Stop()

	bus.Publish(events.NewConsoleLogEvent("warn", "[404] missing.js"))
	snap := painter.next(t)
	assert.Equal(t, "[warn] [404] missing.js\n", snap.ConsoleOutput)

	bus.Publish(events.NewInstallStartEvent())
	bus.Publish(events.NewConsoleLogEvent("warn", "[404] missing.js"))
	painter.next(t)
	snap = painter.next(t)
	assert.Empty(t, snap.InstallOutput)
}

// slowPainter simulates a terminal that repaints slower than events arrive.
type slowPainter struct{ delay time.Duration }

func (p *slowPainter) Repaint(Snapshot) { time.Sleep(p.delay) }

func TestRouter_SlowPainterLosesNoWorkerOutput(t *testing.T) {
	state := NewState("")
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	router := NewRouter(state, bus, &slowPainter{delay: 200 * time.Microsecond})
	router.Start()
	defer router.Stop()

	// Publish far more messages than the router's queue can buffer. The
	// worker's output must end up as the concatenation of every message,
	// in publish order, no matter how far repainting falls behind.
	var expected strings.Builder
	const n = 1000
	for i := 0; i < n; i++ {
		line := fmt.Sprintf("line %d\n", i)
		expected.WriteString(line)
		bus.Publish(events.NewWorkerMessageEvent("compiler", line))
	}

	require.Eventually(t, func() bool {
		snap := state.Snapshot()
		return len(snap.Workers) == 1 && snap.Workers[0].Output == expected.String()
	}, 5*time.Second, 10*time.Millisecond,
		"every worker message must reach the worker's output")
}

func TestRouter_StopWithoutStartReturns(t *testing.T) {
	router, _, _ := newTestRouter(t)

	done := make(chan struct{})
	go func() {
		router.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a prior Start")
	}
}

func TestRouter_StartOnClosedBus(t *testing.T) {
	state := NewState("")
	bus := events.NewBus()
	bus.Close()

	router := NewRouter(state, bus, newCapturePainter())
	router.Start()
	router.Stop()
}

func TestRouter_StopDrainsAndExits(t *testing.T) {
	router, bus, painter := newTestRouter(t)
	router.Start()

	bus.Publish(events.NewWorkerStartEvent("w", nil))
	painter.next(t)

	done := make(chan struct{})
	go func() {
		router.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("router did not stop")
	}
}
