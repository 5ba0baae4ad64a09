package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/veronicavalera/gritgirls/internal/adapter/localfile"
	"github.com/veronicavalera/gritgirls/internal/listing/domain"
	"github.com/veronicavalera/gritgirls/internal/listing/usecase"
	photodomain "github.com/veronicavalera/gritgirls/internal/photo/domain"
	photousecase "github.com/veronicavalera/gritgirls/internal/photo/usecase"
)

func NewBikesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bikes",
		Short: "Browse and manage bike listings",
	}
	cmd.AddCommand(newBikesListCommand(rootOpts))
	cmd.AddCommand(newBikesShowCommand(rootOpts))
	cmd.AddCommand(newBikesCreateCommand(rootOpts))
	cmd.AddCommand(newBikesEditCommand(rootOpts))
	cmd.AddCommand(newBikesDeleteCommand(rootOpts))
	return cmd
}

// bikeView is a bike plus its photo URLs resolved for display.
type bikeView struct {
	*domain.Bike
	PhotoURLs []string `json:"photo_urls"`
}

func (rt *runtime) view(b *domain.Bike) bikeView {
	urls := make([]string, len(b.Photos))
	for i, p := range b.Photos {
		urls[i] = photodomain.ResolveURL(rt.cfg.APIBase, p)
	}
	return bikeView{Bike: b, PhotoURLs: urls}
}

func newBikesListCommand(rootOpts *RootOptions) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bikes, optionally only those in one state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bikes, err := rootOpts.rt.api.ListBikes(cmd.Context(), state)
			if err != nil {
				return err
			}
			return commandFormatter(rootOpts, cmd).Success(bikes, "", func(w io.Writer) {
				if len(bikes) == 0 {
					fmt.Fprintln(w, "No bikes found.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTATE\tPHOTOS\tSTATUS")
				for _, b := range bikes {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, price(b.PriceUSD), orDash(b.State), len(b.Photos), status(&b))
				}
				_ = tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "only bikes in this state (2-letter code)")
	return cmd
}

func newBikesShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one bike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt := rootOpts.rt
			bike, err := rt.api.GetBike(cmd.Context(), id)
			if err != nil {
				return err
			}
			v := rt.view(bike)
			return commandFormatter(rootOpts, cmd).Success(v, "", func(w io.Writer) { printBike(w, v) })
		},
	}
}

func newBikesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		form   domain.Form
		photos []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft listing with photos",
		Args:  cobra.NoArgs,
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
			ctrl := usecase.NewFormController(rt.api, mgr, rt.log)

			notice, err := addPhotos(out, mgr, photos)
			if err != nil {
				return err
			}
			bike, err := ctrl.Submit(ctx, token, form)
			if err != nil {
				return err
			}
			v := rt.view(bike)
			return out.Success(v, notice, func(w io.Writer) {
				fmt.Fprintf(w, "Created draft listing #%d\n", bike.ID)
				printBike(w, v)
			})
		},
	}

	bindFormFlags(cmd, &form)
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "image file to attach (repeatable)")
	return cmd
}

func newBikesEditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		flagForm    domain.Form
		photos      []string
		remove      []int
		clearPhotos bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a listing, its fields and photos",
		Long: `Edit a listing. Only the fields passed as flags change.

--remove-photo takes the 1-based position shown by "bikes show" and
--clear-photos drops them all. Removed photos are deleted from storage
right away; new --photo files are appended after the remaining ones and
uploaded when the listing is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
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
			ctrl := usecase.NewFormController(rt.api, mgr, rt.log)

			form, err := ctrl.Load(ctx, id)
			if err != nil {
				return err
			}
			applyChangedFlags(cmd, &flagForm, &form)

			if clearPhotos {
				n := mgr.Len()
				mgr.Clear(ctx, token)
				out.VerboseLog("removed all %d photo(s)", n)
			}
			positions, err := removalOrder(remove, mgr.Len())
			if err != nil {
				return err
			}
			for _, pos := range positions {
				mgr.RemoveAt(ctx, pos-1, token)
				out.VerboseLog("removed photo #%d", pos)
			}

			notice, err := addPhotos(out, mgr, photos)
			if err != nil {
				return err
			}
			bike, err := ctrl.Submit(ctx, token, form)
			if err != nil {
				return err
			}
			v := rt.view(bike)
			return out.Success(v, notice, func(w io.Writer) {
				fmt.Fprintf(w, "Updated listing #%d\n", bike.ID)
				printBike(w, v)
			})
		},
	}

	bindFormFlags(cmd, &flagForm)
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "image file to append (repeatable)")
	cmd.Flags().IntSliceVar(&remove, "remove-photo", nil, "1-based position of a photo to remove (repeatable)")
	cmd.Flags().BoolVar(&clearPhotos, "clear-photos", false, "remove every photo before adding new ones")
	cmd.MarkFlagsMutuallyExclusive("clear-photos", "remove-photo")
	return cmd
}

func newBikesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt := rootOpts.rt
			token, err := rt.token()
			if err != nil {
				return err
			}
			if err := rt.api.DeleteBike(cmd.Context(), token, id); err != nil {
				return err
			}
			return commandFormatter(rootOpts, cmd).Success(map[string]any{"id": id, "deleted": true}, "", func(w io.Writer) {
				fmt.Fprintf(w, "Deleted listing #%d\n", id)
			})
		},
	}
}

// addPhotos loads paths from disk and queues them on mgr, returning the
// rejection notice if any file was skipped.
func addPhotos(out *OutputFormatter, mgr *photousecase.Manager, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	files, err := localfile.LoadAll(paths)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "cannot read photo", err)
	}
	before := mgr.Len()
	notice := mgr.AddFiles(files)
	out.VerboseLog("queued %d of %d photo(s); %d/%d slots used", mgr.Len()-before, len(files), mgr.Len(), mgr.MaxPhotos())
	return notice, nil
}

// removalOrder checks every position against n and returns them highest
// first, so earlier removals do not shift later ones.
func removalOrder(positions []int, n int) ([]int, error) {
	out := slices.Clone(positions)
	for _, pos := range out {
		if pos < 1 || pos > n {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("no photo #%d (listing has %d)", pos, n))
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid bike id %q", s))
	}
	return id, nil
}

func price(p *int) string {
	if p == nil {
		return "-"
	}
	return "$" + humanize.Comma(int64(*p))
}

func orDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}

func status(b *domain.Bike) string {
	if b.IsActive {
		return "active"
	}
	return "draft"
}

func printBike(w io.Writer, v bikeView) {
	fmt.Fprintf(w, "#%d %s (%s)\n", v.ID, v.Title, status(v.Bike))
	fmt.Fprintf(w, "Price: %s\n", price(v.PriceUSD))
	for _, line := range []struct {
		label string
		value *string
	}{
		{"Brand", v.Brand},
		{"Model", v.Model},
		{"Size", v.Size},
		{"Condition", v.Condition},
		{"State", v.State},
		{"ZIP", v.Zip},
	} {
		if line.value != nil && *line.value != "" {
			fmt.Fprintf(w, "%s: %s\n", line.label, *line.value)
		}
	}
	if v.Year != nil {
		fmt.Fprintf(w, "Year: %d\n", *v.Year)
	}
	if v.ExpiresAt != nil {
		fmt.Fprintf(w, "Expires: %s\n", humanize.Time(v.ExpiresAt.Time))
	}
	if len(v.PhotoURLs) == 0 {
		fmt.Fprintln(w, "Photos: none")
		return
	}
	fmt.Fprintln(w, "Photos:")
	for i, u := range v.PhotoURLs {
		fmt.Fprintf(w, "  %d. %s\n", i+1, u)
	}
}
