package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vramonlinebsc/hms/cmd/bootstrap"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"

	newCore func() (*bootstrap.Core, error)
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the operator CLI. Each pass command runs exactly one
// pass and exits, so any external scheduler can drive it.
func NewRootCommand() *cobra.Command {
	return newRootCommand(bootstrap.NewCore)
}

func newRootCommand(newCore func() (*bootstrap.Core, error)) *cobra.Command {
	opts := &RootOptions{newCore: newCore}

	cmd := &cobra.Command{
		Use:   "hmsctl",
		Short: "Operate the appointment scheduling service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewPenaltiesCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) print(w io.Writer, text string, value interface{}) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
