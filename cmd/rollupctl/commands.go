package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/rollup-backend/internal/app"
	"github.com/yungbote/rollup-backend/internal/clients/redis"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/services"
	"github.com/yungbote/rollup-backend/internal/temporalx"
	"github.com/yungbote/rollup-backend/internal/temporalx/temporalworker"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rollupctl",
		Short:         "Weekly rollup and monthly summary tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		migrateCmd(),
		runCmd(),
		monthlyCmd(),
		categoriesCmd(),
		tokenCmd(),
		watchCmd(),
	)
	return cmd
}

// withCore loads configuration from the environment and hands a ready Core to fn.
func withCore(cmd *cobra.Command, opts app.CoreOptions, fn func(ctx context.Context, core *app.Core) error) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	core, err := app.NewCore(log, app.LoadConfig(log), opts)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(cmd.Context(), core)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, app.CoreOptions{SkipClients: true}, func(_ context.Context, core *app.Core) error {
				core.Log.Info("Schema up to date", "driver", core.Cfg.DB.Driver)
				return nil
			})
		},
	}
}

func runCmd() *cobra.Command {
	var (
		start, end string
		lastWeek   bool
		asOf       string
		eventsPath string
		viaTemp    bool
	)
	cmd := &cobra.Command{
		Use:   "run <category>",
		Short: "Build and store the weekly rollup of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := args[0]
			if !lastWeek && (start == "" || end == "") {
				return fmt.Errorf("either --start and --end or --last-week is required")
			}
			opts := app.CoreOptions{}
			if eventsPath != "" {
				events, err := loadEvents(eventsPath)
				if err != nil {
					return err
				}
				opts.Events = events
			}
			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				if lastWeek {
					ref := time.Now()
					if asOf != "" {
						t, err := time.ParseInLocation("2006-01-02", asOf, core.Location)
						if err != nil {
							return fmt.Errorf("--as-of: %w", err)
						}
						ref = t
					}
					start, end = services.LastWeek(ref, core.Location)
				}
				if viaTemp {
					return runViaTemporal(ctx, cmd.OutOrStdout(), core.Log, core.Cfg.Temporal, category, start, end)
				}
				res, err := core.Services.Rollups.Run(ctx, category, start, end)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the period (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&lastWeek, "last-week", false, "Use the seven days ending yesterday")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference day for --last-week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&eventsPath, "events", "", "Read events from a JSON file ({\"glucose\": [...]}) instead of the database")
	cmd.Flags().BoolVar(&viaTemp, "temporal", false, "Run through the weekly_rollup workflow instead of in-process")
	return cmd
}

func runViaTemporal(ctx context.Context, out io.Writer, log *logger.Logger, cfg temporalx.Config, category, start, end string) error {
	tc, err := temporalx.NewClient(log, cfg)
	if err != nil {
		return err
	}
	if tc == nil {
		return fmt.Errorf("--temporal requires TEMPORAL_ADDRESS")
	}
	defer tc.Close()
	res, err := temporalworker.StartRollup(ctx, tc, cfg.TaskQueue, category, start, end)
	if err != nil {
		return err
	}
	return printJSON(out, res)
}

func monthlyCmd() *cobra.Command {
	var month, mode string
	cmd := &cobra.Command{
		Use:   "monthly <category>",
		Short: "Summarize the stored weekly rollups of one month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if month == "" {
				return fmt.Errorf("--month is required")
			}
			return withCore(cmd, app.CoreOptions{SkipClients: true}, func(ctx context.Context, core *app.Core) error {
				summary, err := core.Services.Rollups.Monthly(ctx, args[0], month, mode)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to summarize (YYYY-MM)")
	cmd.Flags().StringVar(&mode, "mode", "inclusive", "strict or inclusive")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the configured categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, app.CoreOptions{SkipClients: true}, func(_ context.Context, core *app.Core) error {
				for _, name := range core.Registry.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the mutating API routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			auth, err := services.NewAuthService(log, app.LoadConfig(log).JWTSecretKey)
			if err != nil {
				return err
			}
			token, err := auth.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "rollupctl", "Token subject, recorded as the ingest source")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print rollup.updated notifications from Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg := app.LoadConfig(log)
			bus, err := redis.NewRollupBus(log, cfg.Redis)
			if err != nil {
				return err
			}
			defer bus.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			if err := bus.StartForwarder(ctx, func(m redis.RollupUpdated) {
				_ = printJSON(out, m)
			}); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
}

// loadEvents reads a {"category": [events...]} file. Numbers stay json.Number like stored events.
func loadEvents(path string) (map[string][]rollup.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var byCategory map[string][]rollup.Event
	if err := dec.Decode(&byCategory); err != nil {
		return nil, fmt.Errorf("decode events %s: %w", path, err)
	}
	out := map[string][]rollup.Event{}
	for cat, events := range byCategory {
		key := rollup.NormalizeCategory(cat)
		out[key] = append(out[key], events...)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
