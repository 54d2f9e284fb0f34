// Package config loads devhud configuration by layering defaults, user
// settings and project settings.
package config

// Config holds everything the dashboard needs to know up front.
type Config struct {
	// AppName is the program name shown in the dashboard header.
	AppName string `yaml:"appName"`
	// Port is the desired dev server port; negotiation starts here.
	Port int `yaml:"port"`
	// Hostname and Protocol are used for the server URL until the server
	// reports its own startup info.
	Hostname string `yaml:"hostname"`
	Protocol string `yaml:"protocol"`
	// Plain disables all terminal styling.
	Plain bool `yaml:"plain"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		AppName:  "devhud",
		Port:     3000,
		Hostname: "localhost",
		Protocol: "http",
	}
}
