package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devhud/internal/config"
	"devhud/internal/dashboard"
	"devhud/internal/events"
	"devhud/internal/netport"
	"devhud/internal/render"
	"devhud/pkg/logging"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var (
		flagPort  int
		flagHost  string
		flagPlain bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the dashboard against a scripted event feed",
		Long: `demo wires the full dashboard pipeline (port negotiation, event bus,
state router, renderer, keyboard interaction) to a scripted producer that
emits every kind of lifecycle event. Useful for developing the renderer
without a real build process attached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if flagPort != 0 {
				cfg.Port = flagPort
			}
			if flagHost != "" {
				cfg.Hostname = flagHost
			}
			if flagPlain {
				cfg.Plain = true
			}
			return runDemo(cfg)
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "desired dev server port (overrides config)")
	cmd.Flags().StringVar(&flagHost, "host", "", "hostname shown in server URLs (overrides config)")
	cmd.Flags().BoolVar(&flagPlain, "plain", false, "disable terminal styling")

	return cmd
}

func runDemo(cfg config.Config) error {
	logging.Init(logging.LevelWarn, os.Stderr)

	negotiator := netport.NewNegotiator(netport.ProbeListen)
	port, err := negotiator.Negotiate(cfg.Port)
	if err != nil {
		var unavailable *netport.PortUnavailableError
		if errors.As(err, &unavailable) {
			fmt.Fprintf(os.Stderr, "Port %d is in use and port %d was declined. Re-run with --port to pick another port.\n",
				unavailable.Requested, unavailable.Available)
			os.Exit(1)
		}
		return err
	}

	plain := cfg.Plain ||
		!isatty.IsTerminal(os.Stdout.Fd()) ||
		termenv.EnvColorProfile() == termenv.Ascii

	wd, _ := os.Getwd()
	state := dashboard.NewState(wd)
	bus := events.NewBus()
	defer bus.Close()

	renderer := render.New(os.Stdout, cfg.AppName, plain)
	router := dashboard.NewRouter(state, bus, renderer)
	router.Start()
	defer router.Stop()

	// Confirming the missing-module prompt re-runs the install flow.
	addPackage := func(pkgName string) {
		go func() {
			bus.Publish(events.NewInstallStartEvent())
			bus.Publish(events.NewConsoleLogEvent("info", "added 1 package:", pkgName))
			bus.Publish(events.NewInstallCompleteEvent())
			bus.Publish(events.NewMissingModuleEvent("src/chart.js", nil))
		}()
	}
	controller := dashboard.NewController(state, renderer, os.Stdin, addPackage)
	go controller.Run()

	go playScript(bus, cfg, port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

// playScript feeds a fixed sequence of lifecycle events through the bus,
// touching every transition rule the router implements.
func playScript(bus events.Bus, cfg config.Config, port int) {
	step := func(d time.Duration, e events.Event) {
		time.Sleep(d)
		bus.Publish(e)
	}

	step(200*time.Millisecond, events.NewWorkerStartEvent("compiler", nil))
	step(150*time.Millisecond, events.NewWorkerMessageEvent("compiler", "compiling 14 modules\n"))
	step(100*time.Millisecond, events.NewFileBuildEvent("src/index.js", true))
	step(250*time.Millisecond, events.NewFileBuildEvent("src/index.js", false))
	step(100*time.Millisecond, events.NewWorkerUpdateEvent("compiler", &events.Phase{Label: "OPTIMIZING", Color: "cyan"}))
	step(300*time.Millisecond, events.NewWorkerMessageEvent("compiler", "bundle ready in 412ms\n"))
	step(100*time.Millisecond, events.NewWorkerCompleteEvent("compiler", nil))

	step(200*time.Millisecond, events.NewServerStartEvent(
		412, cfg.Hostname, port, cfg.Protocol, []string{"127.0.0.1", "192.168.1.20"}))

	step(400*time.Millisecond, events.NewConsoleLogEvent("log", "app listening"))
	step(300*time.Millisecond, events.NewWorkerStartEvent("linter", &events.Phase{Label: "CHECKING", Color: "yellow"}))
	step(200*time.Millisecond, events.NewWorkerMessageEvent("linter", "2 warnings in src/app.js\n"))
	step(150*time.Millisecond, events.NewWorkerCompleteEvent("linter", errors.New("lint warnings present")))

	// Missing dependency: press enter to install.
	step(600*time.Millisecond, events.NewConsoleLogEvent("error", "cannot resolve 'chart.js' in src/chart.js"))
	step(100*time.Millisecond, events.NewMissingModuleEvent("src/chart.js",
		&events.ModuleRef{Spec: "chart.js", PkgName: "chart.js"}))
}
