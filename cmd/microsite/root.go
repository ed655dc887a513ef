package main

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goliatone/go-microsite"
	"github.com/goliatone/go-microsite/cmd/microsite/internal/bootstrap"
	"github.com/goliatone/go-microsite/internal/di"
	"github.com/goliatone/go-microsite/internal/logging/console"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"github.com/spf13/cobra"
)

var moduleBuilder = bootstrap.BuildModule

type cliState struct {
	configFile string
	envFile    string
	logLevel   string
	noColor    bool

	config microsite.Config
}

func newRootCommand() *cobra.Command {
	state := &cliState{}
	root := &cobra.Command{
		Use:           "microsite",
		Short:         "Edit, serve and prerender a promotion microsite",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.initialize(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&state.configFile, "config", "", "config file (default is ./microsite.yaml when present)")
	flags.StringVar(&state.envFile, "env-file", ".env", "dotenv file loaded before reading config")
	flags.StringVar(&state.logLevel, "log-level", "", "override logging.level")
	flags.BoolVar(&state.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newServeCommand(state),
		newRenderCommand(state),
		newValidateCommand(state),
		newImportCommand(state),
		newDiffCommand(state),
	)
	return root
}

func (s *cliState) initialize(cmd *cobra.Command) error {
	if s.noColor {
		color.NoColor = true
	}
	cfg, used, err := bootstrap.LoadConfig(bootstrap.Options{
		ConfigFile:      s.configFile,
		EnvFile:         s.envFile,
		EnvFileRequired: cmd.Flags().Changed("env-file"),
	})
	if err != nil {
		return err
	}
	if level := strings.TrimSpace(s.logLevel); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if !s.noColor {
		cfg.Logging.Color = true
	}
	s.config = cfg
	if used != "" {
		faint(cmd.ErrOrStderr(), "using config file %s\n", used)
	}
	return nil
}

// build wires the module. Console logs go to stderr so command output
// stays clean on stdout.
func (s *cliState) build(cmd *cobra.Command, cfg microsite.Config) (*microsite.Module, error) {
	var provider interfaces.LoggerProvider
	if strings.EqualFold(strings.TrimSpace(cfg.Logging.Provider), "console") {
		level := console.ParseLevel(cfg.Logging.Level)
		provider = console.NewProvider(console.Options{
			Writer:   cmd.ErrOrStderr(),
			MinLevel: &level,
			Color:    cfg.Logging.Color,
		})
	} else {
		p, err := di.LoggerProviderFromConfig(cfg.Logging)
		if err != nil {
			return nil, err
		}
		provider = p
	}
	return moduleBuilder(cmd.Context(), cfg, bootstrap.Options{LoggerProvider: provider})
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	insertColor  = color.New(color.FgGreen)
	deleteColor  = color.New(color.FgRed)
	faintColor   = color.New(color.Faint)
)

func success(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, format, args...)
}

func warn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, format, args...)
}

func fail(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, format, args...)
}

func faint(w io.Writer, format string, args ...any) {
	_, _ = faintColor.Fprintf(w, format, args...)
}
