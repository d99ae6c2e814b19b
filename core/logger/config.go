package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the output encoding, json for the server and console for the CLI.
	Format string `mapstructure:"format" default:"json"`
	// Service is attached to every entry; empty leaves it out.
	Service string `mapstructure:"service" default:"gallery"`
}
