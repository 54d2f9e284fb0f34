// Package dashboard owns the in-memory state of the live status display
// and the event-driven machinery that keeps it current.
//
// State is the single source of truth for everything the terminal shows:
// background workers, console and install transcripts, the missing-module
// prompt and the dev server's startup info. It is only ever mutated by the
// Router, which drains the event bus on one goroutine and applies exactly
// one transition rule per event, repainting after each. Handlers therefore
// run to completion before the next event is processed and no transition
// ever races another.
//
// The Controller covers the one keyboard interaction the dashboard owns:
// confirming a missing-module install prompt with return/enter.
package dashboard
