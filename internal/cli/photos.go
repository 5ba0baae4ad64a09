package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	photodomain "github.com/veronicavalera/gritgirls/internal/photo/domain"
)

func NewPhotosCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Upload or delete standalone photos",
	}
	cmd.AddCommand(newPhotosUploadCommand(rootOpts))
	cmd.AddCommand(newPhotosDeleteCommand(rootOpts))
	return cmd
}

type uploadResult struct {
	URLs        []string `json:"urls"`
	DisplayURLs []string `json:"display_urls"`
}

func newPhotosUploadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload image files and print their URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := rootOpts.rt
			out := commandFormatter(rootOpts, cmd)

			token, err := rt.token()
			if err != nil {
				return err
			}
			mgr, err := rt.newManager(ctx)
			if err != nil {
				return err
			}
			notice, err := addPhotos(out, mgr, args)
			if err != nil {
				return err
			}
			if mgr.Len() == 0 {
				return WrapExitError(ExitCommandError, "nothing to upload", errors.New(notice))
			}

			urls, err := mgr.Flush(ctx, token)
			if err != nil {
				return err
			}
			res := uploadResult{URLs: urls, DisplayURLs: make([]string, len(urls))}
			for i, u := range urls {
				res.DisplayURLs[i] = photodomain.ResolveURL(rt.cfg.APIBase, u)
			}
			return out.Success(res, notice, func(w io.Writer) {
				for _, u := range res.DisplayURLs {
					fmt.Fprintln(w, u)
				}
			})
		},
	}
}

func newPhotosDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete an uploaded photo (best effort)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := rootOpts.rt
			out := commandFormatter(rootOpts, cmd)

			token, err := rt.token()
			if err != nil {
				return err
			}
			store, err := rt.photoStore(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "photo storage unavailable", err)
			}

			deleted := true
			if err := store.Delete(ctx, args[0], token); err != nil {
				deleted = false
				out.Warn("could not delete %s: %v", args[0], err)
			}
			return out.Success(map[string]any{"url": args[0], "deleted": deleted}, "", func(w io.Writer) {
				if deleted {
					fmt.Fprintf(w, "Deleted %s\n", args[0])
				}
			})
		},
	}
}
