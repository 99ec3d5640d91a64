package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/winter-telescope/wintertoo/internal/export"
	"github.com/winter-telescope/wintertoo/internal/program"
	"github.com/winter-telescope/wintertoo/internal/schedule"
	"github.com/winter-telescope/wintertoo/internal/too"
	"github.com/winter-telescope/wintertoo/internal/validate"
	"github.com/winter-telescope/wintertoo/internal/visibility"
)

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var progFlags programFlags
	var csvPath string
	var upload bool

	cmd := &cobra.Command{
		Use:   "schedule <requests.json>",
		Short: "Build, validate and export a schedule from a request file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prog, err := progFlags.resolve(ctx, opts)
			if err != nil {
				return err
			}
			sched, err := buildFromFile(args[0], prog)
			if err != nil {
				return err
			}
			if err := newPipeline(opts).AgainstProgram(sched, prog); err != nil {
				return err
			}

			path := filepath.Join(opts.cfg.Export.Dir, export.ArtifactName(prog.ProgName, time.Now()))
			if err := export.WriteSQLite(path, sched); err != nil {
				return err
			}
			opts.logger.Info("schedule exported", "path", path, "rows", len(sched))
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", csvPath, err)
				}
				defer f.Close()
				if err := export.WriteCSV(f, sched); err != nil {
					return err
				}
			}

			if upload {
				uploader, err := export.NewUploader(export.UploaderConfig{
					Endpoint:  opts.cfg.Minio.Endpoint,
					AccessKey: opts.cfg.Minio.AccessKey,
					SecretKey: opts.cfg.Minio.SecretKey,
					UseSSL:    opts.cfg.Minio.UseSSL,
					Bucket:    opts.cfg.Minio.Bucket,
				}, opts.logger)
				if err != nil {
					return err
				}
				if err := uploader.Upload(ctx, path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	progFlags.register(cmd)
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the schedule as CSV to this path")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the exported file to the archive bucket")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var progFlags programFlags

	cmd := &cobra.Command{
		Use:   "validate <requests.json>",
		Short: "Build and validate a schedule without exporting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := progFlags.resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sched, err := buildFromFile(args[0], prog)
			if err != nil {
				return err
			}
			if err := newPipeline(opts).AgainstProgram(sched, prog); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule valid: %d rows, %.3f h\n",
				len(sched), sched.ExposureHours())
			return nil
		},
	}

	progFlags.register(cmd)
	return cmd
}

func buildFromFile(path string, prog program.Program) (schedule.Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}
	reqs, err := too.DecodeRequests(raw)
	if err != nil {
		return nil, err
	}
	return schedule.Build(reqs, prog)
}

func newPipeline(opts *rootOptions) *validate.Pipeline {
	return &validate.Pipeline{
		Oracle: visibility.NewOracle(visibility.Palomar, visibility.Config{
			Samples:         opts.cfg.Visibility.Samples,
			MinElevationDeg: opts.cfg.Visibility.MinElevationDeg,
		}),
		Logger: opts.logger,
	}
}
