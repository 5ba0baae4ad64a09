package cli

import (
	"github.com/spf13/cobra"

	"github.com/veronicavalera/gritgirls/internal/listing/domain"
)

type formFlag struct {
	name  string
	usage string
	field func(*domain.Form) *string
}

var formFlags = []formFlag{
	{"title", "listing title", func(f *domain.Form) *string { return &f.Title }},
	{"price", "price in USD", func(f *domain.Form) *string { return &f.PriceUSD }},
	{"brand", "brand", func(f *domain.Form) *string { return &f.Brand }},
	{"model", "model", func(f *domain.Form) *string { return &f.Model }},
	{"year", "model year", func(f *domain.Form) *string { return &f.Year }},
	{"size", "size label (S, M, L...)", func(f *domain.Form) *string { return &f.Size }},
	{"state", "2-letter state code", func(f *domain.Form) *string { return &f.State }},
	{"zip", "5-digit ZIP", func(f *domain.Form) *string { return &f.Zip }},
	{"wheel-size", "wheel size", func(f *domain.Form) *string { return &f.WheelSize }},
	{"condition", "condition", func(f *domain.Form) *string { return &f.Condition }},
	{"description", "description", func(f *domain.Form) *string { return &f.Description }},
	{"frame-size", "frame size in inches", func(f *domain.Form) *string { return &f.FrameSizeIn }},
	{"rider-min", "minimum rider height in inches", func(f *domain.Form) *string { return &f.RiderHeightMinIn }},
	{"rider-max", "maximum rider height in inches", func(f *domain.Form) *string { return &f.RiderHeightMaxIn }},
	{"bike-type", "bike type", func(f *domain.Form) *string { return &f.BikeType }},
	{"frame-material", "frame material", func(f *domain.Form) *string { return &f.FrameMaterial }},
	{"drivetrain", "rear drivetrain", func(f *domain.Form) *string { return &f.DrivetrainRear }},
	{"brakes", "brakes model", func(f *domain.Form) *string { return &f.BrakesModel }},
	{"saddle", "saddle", func(f *domain.Form) *string { return &f.Saddle }},
	{"weight", "weight in lb", func(f *domain.Form) *string { return &f.WeightLb }},
}

func bindFormFlags(cmd *cobra.Command, form *domain.Form) {
	for _, ff := range formFlags {
		cmd.Flags().StringVar(ff.field(form), ff.name, "", ff.usage)
	}
}

// applyChangedFlags copies the flags the user actually passed onto dst, so
// an edit only touches the fields named on the command line.
func applyChangedFlags(cmd *cobra.Command, src, dst *domain.Form) {
	for _, ff := range formFlags {
		if cmd.Flags().Changed(ff.name) {
			*ff.field(dst) = *ff.field(src)
		}
	}
}
