package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/winter-telescope/wintertoo/internal/config"
	"github.com/winter-telescope/wintertoo/internal/program"
)

type rootOptions struct {
	configPath  string
	metricsAddr string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}

	cmd := &cobra.Command{
		Use:           "wintertoo",
		Short:         "Build and validate target-of-opportunity observing schedules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, logger)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if opts.metricsAddr != "" {
				serveMetrics(opts.metricsAddr, logger)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default $WINTERTOO_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	cmd.AddCommand(
		newScheduleCmd(opts),
		newValidateCmd(opts),
		newFieldsCmd(opts),
		newVisibilityCmd(opts),
	)
	return cmd
}

// programFlags are shared by the commands that need a resolved program.
type programFlags struct {
	progName    string
	progKey     string
	programFile string
}

func (f *programFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.progName, "progname", "", "program name, e.g. 2021A000")
	cmd.Flags().StringVar(&f.progKey, "prog-key", "", "program key (default $WINTERTOO_PROG_KEY)")
	cmd.Flags().StringVar(&f.programFile, "program-file", "", "JSON program record, bypassing the credential store")
}

// resolve returns the program either from an offline record file or by
// credentialed lookup against the configured database.
func (f *programFlags) resolve(ctx context.Context, opts *rootOptions) (program.Program, error) {
	if f.programFile != "" {
		raw, err := os.ReadFile(f.programFile)
		if err != nil {
			return program.Program{}, fmt.Errorf("reading program file: %w", err)
		}
		var prog program.Program
		if err := json.Unmarshal(raw, &prog); err != nil {
			return program.Program{}, fmt.Errorf("parsing program file: %w", err)
		}
		if err := prog.Validate(); err != nil {
			return program.Program{}, err
		}
		return prog, nil
	}

	if opts.cfg.Database.DSN == "" {
		return program.Program{}, fmt.Errorf("no database configured; set database.dsn or use --program-file")
	}
	key := f.progKey
	if key == "" {
		key = os.Getenv("WINTERTOO_PROG_KEY")
	}
	if f.progName == "" || key == "" {
		return program.Program{}, fmt.Errorf("both --progname and a program key are required")
	}

	var storeOpts []program.StoreOption
	if opts.cfg.Redis.Enabled {
		cache := program.NewCache(opts.cfg.Redis.Addr,
			time.Duration(opts.cfg.Redis.TTLSeconds)*time.Second, opts.logger)
		storeOpts = append(storeOpts, program.WithCache(cache))
	}
	store, err := program.NewStore(opts.cfg.Database.DSN, opts.logger, storeOpts...)
	if err != nil {
		return program.Program{}, err
	}
	defer store.Close()

	return store.Lookup(ctx, program.Credentials{ProgName: f.progName, ProgKey: key})
}
