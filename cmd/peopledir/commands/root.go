package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/palantir/compute-module-people-directory/internal/app"
	"github.com/palantir/compute-module-people-directory/internal/config"
	"github.com/palantir/compute-module-people-directory/internal/logging"
	"github.com/palantir/compute-module-people-directory/internal/redact"
)

var (
	cfg        config.Config
	configPath string
	graphURL   string
	logLevel   string
)

// configError marks failures that exit with status 2.
type configError struct{ err error }

func (e configError) Error() string { return "config error: " + e.err.Error() }
func (e configError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, redact.Secrets(err.Error()))
		var ce configError
		if errors.As(err, &ce) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "peopledir",
		Short:         "Organizational directory with live presence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return configError{err}
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (env: "+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&graphURL, "graph-url", "", "Graph host URL (env: GRAPH_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace|debug|info|warn|error|disabled (env: "+logging.EnvLogLevel+")")

	root.AddCommand(fetchCmd(), serveCmd(), moduleCmd(), versionCmd())
	return root
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, configPath); err != nil {
			return config.Config{}, err
		}
	}
	c, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if graphURL != "" {
		c.Graph.URL = graphURL
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	return c, nil
}

func newLogger() *logging.ZerologAdapter {
	return logging.New(os.Stderr, "peopledir", cfg.Log.Level, cfg.Log.Format)
}

// newApp validates cfg and builds the application.
func newApp() (*app.App, error) {
	a, err := app.New(cfg, newLogger())
	if err != nil {
		return nil, configError{err}
	}
	return a, nil
}
