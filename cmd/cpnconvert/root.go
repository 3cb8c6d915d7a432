package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/cpnlib/cmd/cpnconvert/internal/request"
	"github.com/meenmo/cpnlib/config"
	"github.com/meenmo/cpnlib/engine"
	"github.com/meenmo/cpnlib/logger"
	"github.com/meenmo/cpnlib/marketdata/fixings"
	"github.com/meenmo/cpnlib/metrics"
)

// errReported marks a failure already written to stdout as JSON.
var errReported = errors.New("reported")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cpnconvert",
		Short:         "Convert flat-compounding Ibor coupons into pricing derivatives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *config.Config
				err error
			)
			configFile, _ := cmd.Flags().GetString("config")
			if configFile != "" {
				cfg, err = config.LoadFromFile(configFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.Logging.Level = lvl
			}
			config.SetConfig(*cfg)
			return logger.Init(cfg.Logging.Env, cfg.Logging.Level)
		},
	}
	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newConvertCmd("convert", "Convert one coupon at its reference date", false))
	root.AddCommand(newConvertCmd("pv", "Convert and price one coupon on a zero curve", true))
	root.AddCommand(newBatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cpnconvert %s\n", version)
			fmt.Fprintf(w, "  commit:  %s\n", commit)
			fmt.Fprintf(w, "  built:   %s\n", date)
		},
	}
}

func newConvertCmd(use, short string, withPV bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			data, err := readInput(cmd)
			if err != nil {
				return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
			}
			var in request.Coupon
			if err := json.Unmarshal(data, &in); err != nil {
				return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
			}
			job, err := in.Job(withPV)
			if err != nil {
				return writeError(stdout, err.Error())
			}
			results, err := runJobs(cmd.Context(), []engine.Job{job})
			if err != nil {
				return writeError(stdout, err.Error())
			}
			out := request.NewOutput(results[0])
			writeJSON(stdout, out)
			if out.Error != "" {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "JSON input path (optional; if set, ignores stdin)")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert a JSON array of coupons concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			withPV, _ := cmd.Flags().GetBool("pv")
			data, err := readInput(cmd)
			if err != nil {
				return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
			}
			var in []request.Coupon
			if err := json.Unmarshal(data, &in); err != nil {
				return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
			}

			outputs := make([]request.Output, len(in))
			jobs := make([]engine.Job, 0, len(in))
			slot := make([]int, 0, len(in))
			for i, c := range in {
				if c.ID == "" {
					c.ID = fmt.Sprintf("%d", i)
				}
				job, err := c.Job(withPV)
				if err != nil {
					outputs[i] = request.Output{ID: c.ID, Error: err.Error()}
					continue
				}
				jobs = append(jobs, job)
				slot = append(slot, i)
			}

			results, err := runJobs(cmd.Context(), jobs)
			if err != nil && results == nil {
				return writeError(stdout, err.Error())
			}
			for k, r := range results {
				outputs[slot[k]] = request.NewOutput(r)
			}
			writeJSON(stdout, outputs)
			if err != nil {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "JSON input path (optional; if set, ignores stdin)")
	cmd.Flags().Bool("pv", false, "also price every coupon on its zero_curve")
	return cmd
}

// runJobs runs jobs on an engine wired to the configured stores and metrics.
func runJobs(ctx context.Context, jobs []engine.Job) ([]engine.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.GetConfig()
	log := logger.Get()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	opts := []engine.Option{engine.WithLogger(log), engine.WithMetrics(m)}

	if needsStore(jobs) {
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		opts = append(opts, engine.WithStore(store))
	}

	results, err := engine.New(opts...).Run(ctx, jobs)

	if path := cfg.Metrics.TextfilePath; path != "" {
		if werr := metrics.WriteTextfile(reg, path); werr != nil {
			log.Warn("metrics textfile not written", zap.String("path", path), zap.Error(werr))
		}
	}
	return results, err
}

func needsStore(jobs []engine.Job) bool {
	for _, j := range jobs {
		if j.Fixings == nil && j.FixingIndex != "" {
			return true
		}
	}
	return false
}

// openStore connects to PostgreSQL and, when configured, fronts it with Redis.
func openStore(ctx context.Context, cfg config.Config) (fixings.Store, func(), error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil, errors.New("fixings_index requires postgres.dsn (or CPNLIB_POSTGRES_DSN)")
	}
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	var store fixings.Store = fixings.NewPostgresStore(pool)
	closers := []func(){pool.Close}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = fixings.NewCachedStore(store, rdb, cfg.Redis.TTL)
		closers = append(closers, func() { _ = rdb.Close() })
	}
	return store, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("input")
	if path = strings.TrimSpace(path); path != "" {
		return os.ReadFile(path)
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return nil, errors.New("no input: pipe JSON on stdin or pass --input")
		}
	}
	return io.ReadAll(cmd.InOrStdin())
}

func writeJSON(w io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(w, string(b))
}

func writeError(w io.Writer, msg string) error {
	writeJSON(w, request.Output{Error: msg})
	return errReported
}
