package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winter-telescope/wintertoo/internal/astrotime"
	"github.com/winter-telescope/wintertoo/internal/fieldcat"
	"github.com/winter-telescope/wintertoo/internal/visibility"
)

func newFieldsCmd(opts *rootOptions) *cobra.Command {
	var gridName string
	var fieldID int
	var ra, dec float64
	var overlapping bool
	var box []float64

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Query the survey field catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := fieldcat.ParseGrid(gridName)
			if err != nil {
				return err
			}
			cat := fieldcat.ForGrid(grid)
			out := cmd.OutOrStdout()

			switch {
			case cmd.Flags().Changed("field-id"):
				f, err := cat.Lookup(fieldID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, f)
				return nil

			case len(box) > 0:
				if len(box) != 4 {
					return fmt.Errorf("--box needs ra_min,ra_max,dec_min,dec_max")
				}
				for _, f := range cat.InBox(box[0], box[1], box[2], box[3]) {
					fmt.Fprintln(out, f)
				}
				return nil

			case cmd.Flags().Changed("ra") && cmd.Flags().Changed("dec"):
				if overlapping {
					for _, f := range cat.Overlapping(ra, dec) {
						fmt.Fprintln(out, f)
					}
					return nil
				}
				f, err := cat.BestField(ra, dec)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, f)
				return nil
			}
			return fmt.Errorf("one of --field-id, --ra/--dec or --box is required")
		},
	}

	cmd.Flags().StringVar(&gridName, "grid", "narrow", "field grid (wide or narrow)")
	cmd.Flags().IntVar(&fieldID, "field-id", 0, "look up one field by ID")
	cmd.Flags().Float64Var(&ra, "ra", 0, "right ascension in degrees")
	cmd.Flags().Float64Var(&dec, "dec", 0, "declination in degrees")
	cmd.Flags().BoolVar(&overlapping, "overlapping", false, "list every field covering the coordinates")
	cmd.Flags().Float64SliceVar(&box, "box", nil, "ra_min,ra_max,dec_min,dec_max search box")
	return cmd
}

func newVisibilityCmd(opts *rootOptions) *cobra.Command {
	var ra, dec, mjd float64

	cmd := &cobra.Command{
		Use:   "visibility",
		Short: "Report whether a target is up during the night of an epoch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mjd") {
				mjd = astrotime.NowMJD()
			}
			oracle := visibility.NewOracle(visibility.Palomar, visibility.Config{
				Samples:         opts.cfg.Visibility.Samples,
				MinElevationDeg: opts.cfg.Visibility.MinElevationDeg,
			})
			_, msg, err := oracle.UpTonight(mjd, ra, dec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().Float64Var(&ra, "ra", 0, "right ascension in degrees")
	cmd.Flags().Float64Var(&dec, "dec", 0, "declination in degrees")
	cmd.Flags().Float64Var(&mjd, "mjd", 0, "epoch as MJD (default now)")
	cmd.MarkFlagRequired("ra")
	cmd.MarkFlagRequired("dec")
	return cmd
}
