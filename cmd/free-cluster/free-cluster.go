package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/drakos74/free-cluster/infra/config"
	cluster "github.com/drakos74/free-cluster/internal"
	"github.com/drakos74/free-cluster/internal/metrics"
	"github.com/drakos74/free-cluster/internal/model"
	"github.com/drakos74/free-cluster/internal/report"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitUsage  = 2
	exitFailed = 3
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out io.Writer) int {
	cfg, err := parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		return exitUsage
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level '%s'\n", cfg.LogLevel)
		return exitUsage
	}
	zerolog.SetGlobalLevel(level)

	engine, err := cluster.NewEngine(cfg)
	if err != nil {
		log.Error().Err(err).Msg("could not create engine")
		return exitUsage
	}

	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr)
	}

	r, err := engine.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("run", engine.RunID()).Msg("clustering failed")
		return exitFatal
	}

	report.Table(out, r.Entries)
	if err := report.Elbow(out, r.Entries); err != nil {
		log.Warn().Err(err).Msg("could not plot average distance")
	}

	if failed := r.Failed(); len(failed) > 0 {
		for _, entry := range failed {
			log.Error().Err(entry.Err).Int("k", entry.K).Msg("clustering failed for k")
		}
		return exitFailed
	}
	return exitOK
}

// parse reads the flags on top of the config file given with -cfg.
// Only the flags set explicitly override the values of the file.
func parse(args []string) (config.Config, error) {
	cfg := config.Default()
	fs, path := flags(&cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments %v: %w", fs.Args(), model.ParameterErr)
	}
	if *path == "" {
		return cfg, nil
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return cfg, err
	}
	// parsing again on top of the file only touches the flags present in args
	fs, _ = flags(&cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// flags binds the command line to the fields of the given config.
func flags(cfg *config.Config) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("free-cluster", flag.ContinueOnError)
	path := fs.String("cfg", "", "config file (.json, .toml, .yaml)")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "input file")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "result file, gets a _k<K> suffix for a range of k")
	fs.StringVar(&cfg.Metrics, "metrics", cfg.Metrics, "file to append the metrics of every k to")
	fs.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "directory to store the centroids of every k")
	fs.BoolVar(&cfg.Header, "header", cfg.Header, "input has a header row")
	fs.StringVar(&cfg.Delimiter, "delimiter", cfg.Delimiter, "input delimiter: auto, ',' or tab")
	fs.BoolVar(&cfg.Normalize, "normalize", cfg.Normalize, "min-max normalize the features")
	fs.IntVar(&cfg.Clusters, "clusters", cfg.Clusters, "number of clusters")
	fs.IntVar(&cfg.From, "from", cfg.From, "first k of the range")
	fs.IntVar(&cfg.To, "to", cfg.To, "last k of the range")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed of the centroid initialisation")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "cap of update steps")
	fs.StringVar(&cfg.Init, "init", cfg.Init, "centroid initialisation: kmeans++ or random")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of k values clustered in parallel")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve prometheus metrics on")
	return fs, path
}
