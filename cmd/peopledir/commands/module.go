package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func moduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "module",
		Short: "Run as a compute module (GET_JOB_URI, POST_RESULT_URI, MODULE_AUTH_TOKEN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateModule(); err != nil {
				return configError{err}
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.RunModule(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
