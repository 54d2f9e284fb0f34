package dashboard

import (
	"bufio"
	"io"

	"devhud/pkg/logging"
)

// Controller handles the one keyboard interaction the dashboard owns:
// confirming a missing-module install prompt. It is only active when the
// host supplies an AddPackage recovery action.
type Controller struct {
	state      *State
	painter    Painter
	addPackage func(pkgName string)
	input      io.Reader
}

// NewController creates a controller reading keypresses from input.
// addPackage may be nil, in which case Run is a no-op.
func NewController(state *State, painter Painter, input io.Reader, addPackage func(string)) *Controller {
	return &Controller{
		state:      state,
		painter:    painter,
		addPackage: addPackage,
		input:      input,
	}
}

// Run reads input until EOF. A confirm keypress (return/enter) while a
// missing-module prompt is active triggers the recovery action and a
// repaint; every other key is ignored. Intended to be run on its own
// goroutine.
func (c *Controller) Run() {
	if c.addPackage == nil {
		return
	}

	reader := bufio.NewReader(c.input)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if err != io.EOF {
				logging.Error("Controller", err, "reading keyboard input")
			}
			return
		}
		if b != '\r' && b != '\n' {
			continue
		}

		prompt := c.state.Prompt()
		if prompt == nil {
			continue
		}

		logging.Info("Controller", "installing %s on user confirm", prompt.PkgName)
		c.addPackage(prompt.PkgName)
		c.painter.Repaint(c.state.Snapshot())
	}
}
