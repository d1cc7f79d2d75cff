// Package cmd implements the quill CLI commands.
package cmd

// LogConfig groups the logging flags shared by every command.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"QUILL_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of the console" env:"QUILL_LOG_FILE"`
	RawFile string `help:"Write hex dumps of every protocol frame to this file" env:"QUILL_LOG_RAW_FILE"`
}

// CLI is the root command structure parsed by Kong.
type CLI struct {
	Config string    `help:"Path to configuration file" env:"QUILL_CONFIG"`
	Log    LogConfig `embed:"" prefix:"log."`

	Run      Run           `cmd:"" help:"Run the keyboard core with simulated switches"`
	Keymap   KeymapCommand `cmd:"" help:"Inspect and update keymap profiles on a running keyboard"`
	Link     Link          `cmd:"" help:"Bridge the keymap protocol over an encrypted connection"`
	Template ConfigCommand `cmd:"" help:"Generate configuration templates"`
}
