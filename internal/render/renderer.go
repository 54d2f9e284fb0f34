package render

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"devhud/internal/dashboard"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// Screen-clear sequences. The legacy Windows console needs the cursor
// repositioned with "0f"; everywhere else the scrollback is wiped too.
const (
	clearANSI    = termenv.CSI + "2J" + termenv.CSI + "3J" + termenv.CSI + "H"
	clearWindows = termenv.CSI + "2J" + termenv.CSI + "0f"
)

func clearSequence() string {
	if runtime.GOOS == "windows" {
		return clearWindows
	}
	return clearANSI
}

// Renderer turns a dashboard snapshot into a full terminal frame. Render is
// a pure function of the snapshot: identical snapshots produce
// byte-identical frames. There is no diffing; every repaint clears the
// screen and redraws all sections.
type Renderer struct {
	out     io.Writer
	appName string
	clear   string
	styles  Styles

	// mu serializes writes to out; Repaint may be called from both the
	// router goroutine and the interaction controller.
	mu sync.Mutex
}

// New creates a renderer writing frames to out. Plain disables all
// styling, for output that is not an interactive terminal.
func New(out io.Writer, appName string, plain bool) *Renderer {
	return &Renderer{
		out:     out,
		appName: appName,
		clear:   clearSequence(),
		styles:  NewStyles(plain),
	}
}

// Repaint renders the snapshot and writes it to the output stream.
func (r *Renderer) Repaint(snap dashboard.Snapshot) {
	frame := r.Render(snap)
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.out, frame)
}

// Render produces the complete frame for a snapshot, clear sequence
// included.
func (r *Renderer) Render(snap dashboard.Snapshot) string {
	var b strings.Builder

	b.WriteString(r.clear)

	r.renderConsole(&b, snap)
	r.renderWorkers(&b, snap)
	r.renderTitle(&b)
	r.renderServer(&b, snap)
	r.renderInstall(&b, snap)

	return b.String()
}

// renderConsole prints the console transcript, when there is one.
func (r *Renderer) renderConsole(b *strings.Builder, snap dashboard.Snapshot) {
	if snap.ConsoleOutput == "" {
		return
	}
	b.WriteString(r.styles.SectionHeader.Render("Console output"))
	b.WriteString("\n")
	b.WriteString(reindent(snap.ConsoleOutput))
	b.WriteString("\n\n")
}

// renderWorkers prints one section per worker with output, in first-seen
// order. A worker that errored gets the error header.
func (r *Renderer) renderWorkers(b *strings.Builder, snap dashboard.Snapshot) {
	for _, w := range snap.Workers {
		if w.Output == "" {
			continue
		}

		headerStyle := r.styles.SectionHeader
		if w.Err != nil {
			headerStyle = r.styles.ErrorHeader
		}
		b.WriteString(headerStyle.Render(w.Name))
		if w.Phase != nil {
			b.WriteString(" ")
			b.WriteString(r.styles.Phase(w.Phase.Color).Render(w.Phase.Label))
		}
		b.WriteString("\n")
		b.WriteString(reindent(w.Output))
		b.WriteString("\n\n")
	}
}

// renderTitle prints the program name with an underline rule.
func (r *Renderer) renderTitle(b *strings.Builder) {
	b.WriteString(r.styles.Title.Render(r.appName))
	b.WriteString("\n")
	b.WriteString(r.styles.Dim.Render(strings.Repeat("─", runewidth.StringWidth(r.appName))))
	b.WriteString("\n")
}

// renderServer prints the server status block: the primary URL, one line
// per additional interface, and the elapsed-time line.
func (r *Renderer) renderServer(b *strings.Builder, snap dashboard.Snapshot) {
	srv := snap.Server
	if !srv.Started() {
		b.WriteString(r.styles.Dim.Render("starting..."))
		b.WriteString("\n")
		return
	}

	b.WriteString(r.styles.URL.Render(fmt.Sprintf("%s://%s:%d", srv.Protocol, srv.Hostname, srv.Port)))
	b.WriteString("\n")
	for _, ip := range srv.IPs {
		b.WriteString(r.styles.Bullet.Render(" • "))
		b.WriteString(fmt.Sprintf("%s://%s:%d", srv.Protocol, ip, srv.Port))
		b.WriteString("\n")
	}

	line := "Server started"
	if srv.StartTimeMs < 1000 {
		line = fmt.Sprintf("Server started in %dms", srv.StartTimeMs)
	}
	if snap.Building {
		line += " Building..."
	}
	b.WriteString(line)
	b.WriteString("\n")
}

// renderInstall prints the install overlay. When installing, this is the
// last section of the frame.
func (r *Renderer) renderInstall(b *strings.Builder, snap dashboard.Snapshot) {
	if !snap.Installing {
		return
	}
	b.WriteString("\n")
	b.WriteString(r.styles.SectionHeader.Render("Installing dependencies"))
	b.WriteString("\n")
	if strings.TrimSpace(snap.InstallOutput) != "" {
		b.WriteString(reindent(snap.InstallOutput))
		b.WriteString("\n")
	}
}

// reindent trims the text and re-indents every line by two spaces.
func reindent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
