// Package cli implements the photoctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string

	rt *runtime
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the photoctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photoctl",
		Short: "Manage GritGirls bike listings and their photos",
		Long: `photoctl creates and edits bike listings on the GritGirls marketplace.

Photos picked with --photo are checked locally (images only, size limit),
uploaded in order when the listing is submitted, and removed from storage
when dropped from a saved listing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			rt, err := newRuntime(cmd.Context(), opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "startup failed", err)
			}
			opts.rt = rt
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load settings from this .env file")

	cmd.AddCommand(NewSignupCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewBikesCommand(opts))
	cmd.AddCommand(NewPhotosCommand(opts))

	return cmd
}

// Run executes photoctl with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if opts.rt != nil {
		if cerr := opts.rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		f := opts.formatter(stdout, stderr)
		_ = f.Error(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func (o *RootOptions) formatter(stdout, stderr io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    stdout,
		ErrWriter: stderr,
		Verbose:   o.Verbose,
	}
}

func commandFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
