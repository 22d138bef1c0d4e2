// Package commands provides the CLI commands for commandlang.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/AlexanderGrooff/commandlang-go/internal/config"
	"github.com/AlexanderGrooff/commandlang-go/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	envFile     string
	logLevel    string
	contextFile string

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "commandlang",
		Short: "CommandLang - chat command templates",
		Long: `commandlang renders CommandLang templates against a chat message.

Templates mix literal text with conditionals ([if expr](body), [elif ...],
[else](...)) and substitutions ({a:n}, {1+2}, {somecommand}).
Run 'commandlang render' to render a template, or 'commandlang run' to
invoke a command the way a chat user would.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default $COMMANDLANG_CONFIG)")
	flags.StringVar(&opts.envFile, "env-file", "", "Path to a .env file with COMMANDLANG_* overrides")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR, OFF)")
	flags.StringVarP(&opts.contextFile, "context", "c", "", "YAML chat fixture to render against")

	rootCmd.SetVersionTemplate(`{{printf "%s version %s" .Name .Version}}` + "\n")

	rootCmd.AddCommand(
		newRenderCmd(opts),
		newEvalCmd(opts),
		newLexCmd(),
		newCommandsCmd(opts),
		newRunCmd(opts),
	)
	return rootCmd
}

// load reads the configuration and sets up logging. Flags win over the
// config file and the environment.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.contextFile != "" {
		cfg.ContextFile = o.contextFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Init(logCfg)
	logging.Debug().
		Str("command", cmd.Name()).
		Int("max_depth", cfg.MaxDepth).
		Int("max_in_flight", cfg.MaxInFlight).
		Msg("configuration loaded")

	o.cfg = cfg
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
