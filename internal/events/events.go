package events

import (
	"fmt"
	"time"
)

// EventType defines the type of event
type EventType string

const (
	// Build pipeline events
	EventTypeFileBuild EventType = "build.file"

	// Background worker lifecycle events
	EventTypeWorkerStart    EventType = "worker.start"
	EventTypeWorkerMessage  EventType = "worker.message"
	EventTypeWorkerUpdate   EventType = "worker.update"
	EventTypeWorkerComplete EventType = "worker.complete"
	EventTypeWorkerReset    EventType = "worker.reset"

	// Console logging events
	EventTypeConsoleLog EventType = "console.log"

	// Dependency installation events
	EventTypeInstallStart    EventType = "install.start"
	EventTypeInstallComplete EventType = "install.complete"
	EventTypeInstallReset    EventType = "install.reset"
	EventTypeMissingModule   EventType = "module.missing"

	// Dev server events
	EventTypeServerStart EventType = "server.start"
)

// Phase is a worker's current human-readable status label plus a color hint.
type Phase struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// ModuleRef identifies a missing module: the import specifier as written in
// source and the package name that would resolve it.
type ModuleRef struct {
	Spec    string `json:"spec"`
	PkgName string `json:"pkgName"`
}

// Event is the base interface for all events in the system
type Event interface {
	// Type returns the event type
	Type() EventType

	// Source returns the source component that generated this event
	Source() string

	// Timestamp returns when the event occurred
	Timestamp() time.Time

	// String returns a human-readable description of the event
	String() string
}

// BaseEvent provides common event functionality
type BaseEvent struct {
	EventType   EventType `json:"type"`
	SourceLabel string    `json:"source"`
	EventTime   time.Time `json:"timestamp"`
}

// Type implements Event interface
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Source implements Event interface
func (e BaseEvent) Source() string {
	return e.SourceLabel
}

// Timestamp implements Event interface
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// String implements Event interface
func (e BaseEvent) String() string {
	return string(e.EventType) + " from " + e.SourceLabel
}

// FileBuildEvent toggles a file in or out of the set of files currently
// being compiled.
type FileBuildEvent struct {
	BaseEvent
	Path       string `json:"path"`
	IsBuilding bool   `json:"isBuilding"`
}

// String returns a human-readable description
func (e FileBuildEvent) String() string {
	if e.IsBuilding {
		return "building " + e.Path
	}
	return "built " + e.Path
}

// WorkerStartEvent announces that a named background worker has started.
// Phase is optional; the dashboard applies a default when absent.
type WorkerStartEvent struct {
	BaseEvent
	Name  string `json:"id"`
	Phase *Phase `json:"phase,omitempty"`
}

// String returns a human-readable description
func (e WorkerStartEvent) String() string {
	if e.Phase != nil {
		return "worker " + e.Name + " started (" + e.Phase.Label + ")"
	}
	return "worker " + e.Name + " started"
}

// WorkerMessageEvent carries a chunk of output text from a worker.
type WorkerMessageEvent struct {
	BaseEvent
	Name string `json:"id"`
	Text string `json:"msg"`
}

// String returns a human-readable description
func (e WorkerMessageEvent) String() string {
	return fmt.Sprintf("worker %s emitted %d bytes", e.Name, len(e.Text))
}

// WorkerUpdateEvent changes a worker's phase. A nil phase is a no-op.
type WorkerUpdateEvent struct {
	BaseEvent
	Name  string `json:"id"`
	Phase *Phase `json:"phase,omitempty"`
}

// String returns a human-readable description
func (e WorkerUpdateEvent) String() string {
	if e.Phase != nil {
		return "worker " + e.Name + " now " + e.Phase.Label
	}
	return "worker " + e.Name + " update"
}

// WorkerCompleteEvent marks a worker as done, optionally with an error.
type WorkerCompleteEvent struct {
	BaseEvent
	Name string `json:"id"`
	Err  error  `json:"error,omitempty"`
}

// String returns a human-readable description
func (e WorkerCompleteEvent) String() string {
	if e.Err != nil {
		return "worker " + e.Name + " completed (error: " + e.Err.Error() + ")"
	}
	return "worker " + e.Name + " completed"
}

// WorkerResetEvent restores a worker's slot to the zero state.
type WorkerResetEvent struct {
	BaseEvent
	Name string `json:"id"`
}

// String returns a human-readable description
func (e WorkerResetEvent) String() string {
	return "worker " + e.Name + " reset"
}

// ConsoleLogEvent carries a console log call from the running process.
type ConsoleLogEvent struct {
	BaseEvent
	Level string `json:"level"`
	Args  []any  `json:"args"`
}

// String returns a human-readable description
func (e ConsoleLogEvent) String() string {
	return "console." + e.Level
}

// InstallStartEvent signals that dependency installation began.
type InstallStartEvent struct {
	BaseEvent
}

// InstallCompleteEvent signals that dependency installation finished.
type InstallCompleteEvent struct {
	BaseEvent
}

// InstallResetEvent is the deferred follow-up to InstallCompleteEvent that
// clears the install overlay after its display-hold delay. It re-enters the
// queue like any other event so ordering with concurrent events is preserved.
type InstallResetEvent struct {
	BaseEvent
}

// MissingModuleEvent reports a detected-but-unresolved runtime dependency.
// A nil Module for the currently prompted path means the dependency resolved.
type MissingModuleEvent struct {
	BaseEvent
	Path   string     `json:"id"`
	Module *ModuleRef `json:"data,omitempty"`
}

// String returns a human-readable description
func (e MissingModuleEvent) String() string {
	if e.Module != nil {
		return "missing module " + e.Module.Spec + " in " + e.Path
	}
	return "missing module resolved for " + e.Path
}

// ServerStartEvent carries the dev server's self-reported startup info.
type ServerStartEvent struct {
	BaseEvent
	StartTimeMs int64    `json:"startTimeMs"`
	Hostname    string   `json:"hostname"`
	Port        int      `json:"port"`
	Protocol    string   `json:"protocol"`
	IPs         []string `json:"ips"`
}

// String returns a human-readable description
func (e ServerStartEvent) String() string {
	return fmt.Sprintf("server started on %s://%s:%d", e.Protocol, e.Hostname, e.Port)
}

func base(t EventType, source string) BaseEvent {
	return BaseEvent{
		EventType:   t,
		SourceLabel: source,
		EventTime:   time.Now(),
	}
}

// NewFileBuildEvent creates a new file build toggle event
func NewFileBuildEvent(path string, isBuilding bool) *FileBuildEvent {
	return &FileBuildEvent{
		BaseEvent:  base(EventTypeFileBuild, "pipeline"),
		Path:       path,
		IsBuilding: isBuilding,
	}
}

// NewWorkerStartEvent creates a new worker start event
func NewWorkerStartEvent(name string, phase *Phase) *WorkerStartEvent {
	return &WorkerStartEvent{
		BaseEvent: base(EventTypeWorkerStart, "pipeline"),
		Name:      name,
		Phase:     phase,
	}
}

// NewWorkerMessageEvent creates a new worker message event
func NewWorkerMessageEvent(name, text string) *WorkerMessageEvent {
	return &WorkerMessageEvent{
		BaseEvent: base(EventTypeWorkerMessage, "pipeline"),
		Name:      name,
		Text:      text,
	}
}

// NewWorkerUpdateEvent creates a new worker update event
func NewWorkerUpdateEvent(name string, phase *Phase) *WorkerUpdateEvent {
	return &WorkerUpdateEvent{
		BaseEvent: base(EventTypeWorkerUpdate, "pipeline"),
		Name:      name,
		Phase:     phase,
	}
}

// NewWorkerCompleteEvent creates a new worker complete event
func NewWorkerCompleteEvent(name string, err error) *WorkerCompleteEvent {
	return &WorkerCompleteEvent{
		BaseEvent: base(EventTypeWorkerComplete, "pipeline"),
		Name:      name,
		Err:       err,
	}
}

// NewWorkerResetEvent creates a new worker reset event
func NewWorkerResetEvent(name string) *WorkerResetEvent {
	return &WorkerResetEvent{
		BaseEvent: base(EventTypeWorkerReset, "pipeline"),
		Name:      name,
	}
}

// NewConsoleLogEvent creates a new console log event
func NewConsoleLogEvent(level string, args ...any) *ConsoleLogEvent {
	return &ConsoleLogEvent{
		BaseEvent: base(EventTypeConsoleLog, "console"),
		Level:     level,
		Args:      args,
	}
}

// NewInstallStartEvent creates a new install start event
func NewInstallStartEvent() *InstallStartEvent {
	return &InstallStartEvent{BaseEvent: base(EventTypeInstallStart, "installer")}
}

// NewInstallCompleteEvent creates a new install complete event
func NewInstallCompleteEvent() *InstallCompleteEvent {
	return &InstallCompleteEvent{BaseEvent: base(EventTypeInstallComplete, "installer")}
}

// NewInstallResetEvent creates the deferred install overlay reset event
func NewInstallResetEvent() *InstallResetEvent {
	return &InstallResetEvent{BaseEvent: base(EventTypeInstallReset, "timer")}
}

// NewMissingModuleEvent creates a new missing module event
func NewMissingModuleEvent(path string, module *ModuleRef) *MissingModuleEvent {
	return &MissingModuleEvent{
		BaseEvent: base(EventTypeMissingModule, "installer"),
		Path:      path,
		Module:    module,
	}
}

// NewServerStartEvent creates a new server start event
func NewServerStartEvent(startTimeMs int64, hostname string, port int, protocol string, ips []string) *ServerStartEvent {
	return &ServerStartEvent{
		BaseEvent:   base(EventTypeServerStart, "server"),
		StartTimeMs: startTimeMs,
		Hostname:    hostname,
		Port:        port,
		Protocol:    protocol,
		IPs:         ips,
	}
}
