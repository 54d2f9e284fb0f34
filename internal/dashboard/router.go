package dashboard

import (
	"time"

	"devhud/internal/events"
	"devhud/pkg/logging"
)

const (
	// routerBufferSize is the depth of the router's event queue. The
	// subscription is blocking, so a full queue stalls publishers until
	// repainting catches up; nothing is ever dropped. 256 keeps bursty
	// build output from stalling producers in the common case.
	routerBufferSize = 256

	// installHoldDelay is how long the install overlay stays visible after
	// install-complete before the state is cleared.
	installHoldDelay = 2 * time.Second
)

// Painter repaints the terminal from a state snapshot.
type Painter interface {
	Repaint(Snapshot)
}

// Router is the sole mutator of the dashboard State. It consumes the event
// bus on a single goroutine, applies one transition rule per event, and
// repaints after every transition, so handlers never race each other.
type Router struct {
	state   *State
	bus     events.Bus
	painter Painter

	sub  *events.Subscription
	done chan struct{}

	// schedule defers a function by d; swapped out in tests.
	schedule func(d time.Duration, fn func())
}

// NewRouter creates a router bound to the given state, bus and painter.
func NewRouter(state *State, bus events.Bus, painter Painter) *Router {
	return &Router{
		state:   state,
		bus:     bus,
		painter: painter,
		done:    make(chan struct{}),
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Start subscribes to the bus and begins processing events. It returns
// immediately; processing happens on the router's own goroutine. The
// subscription is blocking: every published event reaches the router,
// with backpressure on publishers when repainting falls behind.
func (r *Router) Start() {
	r.sub = r.bus.SubscribeBlocking(nil, routerBufferSize)
	go r.loop()
}

// Stop unsubscribes from the bus and waits for the processing goroutine to
// drain and exit. A no-op if Start was never called.
func (r *Router) Stop() {
	if r.sub == nil {
		return
	}
	r.bus.Unsubscribe(r.sub)
	<-r.done
}

func (r *Router) loop() {
	defer close(r.done)
	for event := range r.sub.Channel {
		r.apply(event)
		r.painter.Repaint(r.state.Snapshot())
	}
}

// apply dispatches one event to its transition rule. Unknown events are
// logged and dropped rather than crashing the render loop.
func (r *Router) apply(event events.Event) {
	switch e := event.(type) {
	case *events.FileBuildEvent:
		r.state.ToggleFileBuild(e.Path, e.IsBuilding)
	case *events.WorkerStartEvent:
		r.state.StartWorker(e.Name, e.Phase)
	case *events.WorkerMessageEvent:
		r.state.AppendWorkerOutput(e.Name, e.Text)
	case *events.WorkerUpdateEvent:
		r.state.UpdateWorkerPhase(e.Name, e.Phase)
	case *events.WorkerCompleteEvent:
		r.state.CompleteWorker(e.Name, e.Err)
	case *events.WorkerResetEvent:
		r.state.ResetWorker(e.Name)
	case *events.ConsoleLogEvent:
		r.state.AppendConsole(e.Level, e.Args)
	case *events.InstallStartEvent:
		r.state.BeginInstall()
	case *events.InstallCompleteEvent:
		// The clear is deferred so the final install output stays on screen
		// for a moment. The timer re-enters the same queue as a regular
		// event, preserving ordering with anything published in between.
		// It is not cancellable; if a new install starts before it fires,
		// the reset still blanks the fields.
		r.schedule(installHoldDelay, func() {
			r.bus.Publish(events.NewInstallResetEvent())
		})
	case *events.InstallResetEvent:
		r.state.FinishInstall()
	case *events.MissingModuleEvent:
		r.state.SetMissingModule(e.Path, e.Module)
	case *events.ServerStartEvent:
		r.state.SetServerInfo(ServerInfo{
			Port:        e.Port,
			Hostname:    e.Hostname,
			Protocol:    e.Protocol,
			StartTimeMs: e.StartTimeMs,
			IPs:         e.IPs,
		})
	default:
		logging.Debug("Router", "dropping unhandled event type %s", event.Type())
	}
}
