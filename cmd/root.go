package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devhud",
	Short: "Live status dashboard for a development process",
	Long: `devhud renders a live terminal dashboard for a build/dev process:
file builds, background workers, dependency installation, console output
and dev server status, repainted on every lifecycle event.`,
	// SilenceUsage is set to true to prevent printing usage message on
	// errors handled by us (e.g. an unavailable port)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "devhud version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newVersionCmd())
}
