// Package netport owns the one-time interactive port negotiation that runs
// before the dashboard takes over the terminal.
package netport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"devhud/pkg/logging"

	"github.com/mattn/go-isatty"
)

// ProbeFunc returns the best available port starting the search at desired.
type ProbeFunc func(desired int) (int, error)

// PortUnavailableError reports that the requested port was taken and the
// fallback was declined or could not be offered.
type PortUnavailableError struct {
	Requested int
	Available int
}

// Error implements the error interface.
func (e *PortUnavailableError) Error() string {
	return fmt.Sprintf("port %d is unavailable (next free port: %d)", e.Requested, e.Available)
}

// declinePattern matches exactly "n" or "no", any case. Everything else,
// including an empty answer, counts as acceptance.
var declinePattern = regexp.MustCompile(`^(?i)no?$`)

// Negotiator obtains a usable port, asking the user to confirm a fallback
// when the desired port is taken.
type Negotiator struct {
	Probe ProbeFunc

	// Input and Output carry the confirmation prompt. They default to
	// stdin/stdout.
	Input  io.Reader
	Output io.Writer

	// Interactive reports whether a prompt can be shown. Defaults to an
	// isatty check on stdin.
	Interactive func() bool
}

// NewNegotiator creates a negotiator with the given probe and the default
// terminal wiring.
func NewNegotiator(probe ProbeFunc) *Negotiator {
	return &Negotiator{
		Probe:  probe,
		Input:  os.Stdin,
		Output: os.Stdout,
		Interactive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
}

// Negotiate returns the port to use. The desired port is returned silently
// when it is free. Otherwise the user is offered the next free port; on
// decline or when no prompt can be shown, a *PortUnavailableError is
// returned. This runs once, before the dashboard installs its own
// listeners, so blocking on a line of input here is fine.
func (n *Negotiator) Negotiate(desired int) (int, error) {
	available, err := n.Probe(desired)
	if err != nil {
		return 0, fmt.Errorf("probing for a free port: %w", err)
	}

	if available == desired {
		return desired, nil
	}

	logging.Debug("netport", "port %d taken, next free is %d", desired, available)

	if n.Interactive == nil || !n.Interactive() {
		return 0, &PortUnavailableError{Requested: desired, Available: available}
	}

	fmt.Fprintf(n.Output, "Port %d is in use. Use port %d instead? [Y/n] ", desired, available)

	answer, err := bufio.NewReader(n.Input).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading port confirmation: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if declinePattern.MatchString(answer) {
		return 0, &PortUnavailableError{Requested: desired, Available: available}
	}
	return available, nil
}

// ProbeListen is the default prober: it walks upward from desired, binding
// and releasing each candidate until one accepts a listener.
func ProbeListen(desired int) (int, error) {
	for port := desired; port < desired+1000 && port <= 65535; port++ {
		l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port found in range %d-%d", desired, desired+1000)
}
