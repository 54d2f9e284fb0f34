package dashboard

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"devhud/internal/events"
)

// Default phases applied by the transition rules when the producer does not
// supply one.
var (
	PhaseRunning = events.Phase{Label: "RUNNING", Color: "yellow"}
	PhaseDone    = events.Phase{Label: "DONE", Color: "green"}
)

// WorkerState tracks one named background task.
type WorkerState struct {
	// Done is set once the task has signaled completion.
	Done bool
	// Phase is the current human-readable status; nil before the first update.
	Phase *events.Phase
	// Err holds the first error observed. Once set it is only cleared by a
	// full reset of the worker's slot.
	Err error
	// Output is the append-only accumulated text for this task.
	Output string
}

// ModulePrompt is the single-slot record of a detected-but-unresolved
// runtime dependency awaiting user confirmation to install.
type ModulePrompt struct {
	Path    string
	Spec    string
	PkgName string
}

// ServerInfo holds the dev server's self-reported startup details.
type ServerInfo struct {
	Port        int
	Hostname    string
	Protocol    string
	StartTimeMs int64
	IPs         []string
}

// Started reports whether the server has announced itself.
func (s ServerInfo) Started() bool {
	return s.StartTimeMs > 0 && s.Port > 0 && s.Protocol != ""
}

// State is the mutable, single-owner snapshot of everything currently known
// about the running session. All mutation goes through the Router's
// transition rules; readers take an immutable Snapshot.
type State struct {
	mu sync.RWMutex

	baseDir string

	server        ServerInfo
	consoleOutput string
	installOutput string
	installing    bool
	prompt        *ModulePrompt

	// workers is insertion-ordered via workerOrder. Slots are never removed,
	// so a worker that disappears and reappears under the same name keeps
	// its position.
	workers     map[string]*WorkerState
	workerOrder []string

	building map[string]struct{}
}

// NewState creates an empty dashboard state. File paths in build events are
// shown relative to baseDir when possible; an empty baseDir leaves them
// untouched.
func NewState(baseDir string) *State {
	return &State{
		baseDir:  baseDir,
		workers:  make(map[string]*WorkerState),
		building: make(map[string]struct{}),
	}
}

// ensureWorker lazily initializes a worker slot to the zero WorkerState.
// Idempotent.
func (s *State) ensureWorker(name string) *WorkerState {
	w, exists := s.workers[name]
	if !exists {
		w = &WorkerState{}
		s.workers[name] = w
		s.workerOrder = append(s.workerOrder, name)
	}
	return w
}

func (s *State) relPath(p string) string {
	if s.baseDir == "" {
		return p
	}
	rel, err := filepath.Rel(s.baseDir, p)
	if err != nil {
		return p
	}
	return rel
}

// ToggleFileBuild adds or removes a file from the set of files being compiled.
func (s *State) ToggleFileBuild(path string, isBuilding bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := s.relPath(path)
	if isBuilding {
		s.building[rel] = struct{}{}
	} else {
		delete(s.building, rel)
	}
}

// StartWorker marks a worker as started. A nil phase applies the default
// RUNNING phase.
func (s *State) StartWorker(name string, phase *events.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ensureWorker(name)
	if phase == nil {
		p := PhaseRunning
		w.Phase = &p
	} else {
		p := *phase
		w.Phase = &p
	}
}

// AppendWorkerOutput appends text to a worker's accumulated output.
func (s *State) AppendWorkerOutput(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ensureWorker(name)
	w.Output += text
}

// UpdateWorkerPhase sets a worker's phase. A nil phase is ignored.
func (s *State) UpdateWorkerPhase(name string, phase *events.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ensureWorker(name)
	if phase != nil {
		p := *phase
		w.Phase = &p
	}
}

// CompleteWorker marks a worker done with the DONE phase. The first error
// observed wins; later errors are ignored.
func (s *State) CompleteWorker(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ensureWorker(name)
	p := PhaseDone
	w.Phase = &p
	w.Done = true
	if w.Err == nil {
		w.Err = err
	}
}

// ResetWorker replaces a worker's slot with the zero WorkerState, keeping
// its position in the display order.
func (s *State) ResetWorker(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureWorker(name)
	s.workers[name] = &WorkerState{}
}

// installSkipPrefix marks console messages that the installer already
// surfaces itself; they are suppressed from the install transcript.
const installSkipPrefix = "[404] "

// AppendConsole routes a console log line. While installing, formatted
// messages accumulate in the install transcript (except resolver 404 noise);
// otherwise they land in the console transcript with their level tag.
func (s *State) AppendConsole(level string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := formatArgs(args)
	if s.installing {
		if !strings.HasPrefix(msg, installSkipPrefix) {
			s.installOutput += msg
		}
		return
	}
	s.consoleOutput += "[" + level + "] " + msg + "\n"
}

// formatArgs renders console arguments the way a console.log call would:
// operands separated by single spaces.
func formatArgs(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}

// BeginInstall marks the start of dependency installation.
func (s *State) BeginInstall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.installing = true
	s.installOutput = ""
}

// FinishInstall clears everything the install flow touched: the prompt, the
// installing flag, and both transcripts. Invoked by the deferred
// install-reset event after the display-hold delay; it is idempotent and
// clears unconditionally even if a new install has started since.
func (s *State) FinishInstall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompt = nil
	s.installing = false
	s.installOutput = ""
	s.consoleOutput = ""
}

// SetMissingModule applies the single-slot prompt rules: a detection fills
// an empty slot; a detection for the occupied slot's path replaces it (or
// clears it when module is nil); detections for other paths are ignored
// while the slot is occupied.
func (s *State) SetMissingModule(path string, module *events.ModuleRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prompt == nil {
		if module != nil {
			s.prompt = &ModulePrompt{Path: path, Spec: module.Spec, PkgName: module.PkgName}
		}
		return
	}
	if s.prompt.Path != path {
		return
	}
	if module == nil {
		s.prompt = nil
		return
	}
	s.prompt = &ModulePrompt{Path: path, Spec: module.Spec, PkgName: module.PkgName}
}

// SetServerInfo records the dev server's startup info verbatim.
func (s *State) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server = info
}

// Prompt returns the active missing-module prompt, or nil.
func (s *State) Prompt() *ModulePrompt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.prompt == nil {
		return nil
	}
	p := *s.prompt
	return &p
}

// WorkerSnapshot is an immutable copy of one worker's state.
type WorkerSnapshot struct {
	Name   string
	Done   bool
	Phase  *events.Phase
	Err    error
	Output string
}

// Snapshot is an immutable copy of the full dashboard state, safe to hand
// to the renderer.
type Snapshot struct {
	Server        ServerInfo
	ConsoleOutput string
	InstallOutput string
	Installing    bool
	Prompt        *ModulePrompt
	Workers       []WorkerSnapshot
	Building      bool
}

// Snapshot returns a deep copy of the current state. Workers appear in
// first-seen order.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Server:        s.server,
		ConsoleOutput: s.consoleOutput,
		InstallOutput: s.installOutput,
		Installing:    s.installing,
		Building:      len(s.building) > 0,
	}
	snap.Server.IPs = append([]string(nil), s.server.IPs...)

	if s.prompt != nil {
		p := *s.prompt
		snap.Prompt = &p
	}

	snap.Workers = make([]WorkerSnapshot, 0, len(s.workerOrder))
	for _, name := range s.workerOrder {
		w := s.workers[name]
		ws := WorkerSnapshot{
			Name:   name,
			Done:   w.Done,
			Err:    w.Err,
			Output: w.Output,
		}
		if w.Phase != nil {
			p := *w.Phase
			ws.Phase = &p
		}
		snap.Workers = append(snap.Workers, ws)
	}

	return snap
}
