package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/darianmavgo/growlog/config"
	"github.com/darianmavgo/growlog/importer"
	"github.com/darianmavgo/growlog/logging"
	"github.com/darianmavgo/growlog/source"
	"github.com/darianmavgo/growlog/store"
	_ "github.com/darianmavgo/growlog/store/all"
)

var version = "0.1.0"

// options are the command line flags. Unset flags leave the config file
// and environment values alone.
type options struct {
	Config      string `short:"c" long:"config" description:"HCL config file"`
	Driver      string `short:"d" long:"driver" description:"Store driver: sqlite, mysql or postgres"`
	DSN         string `long:"dsn" description:"Data source name of the store"`
	Table       string `short:"t" long:"table" description:"Table to insert into"`
	BatchSize   *int   `short:"b" long:"batch-size" description:"Rows per transaction, 1 commits every row"`
	CreateTable bool   `long:"create-table" description:"Create the table if it does not exist"`
	Verbose     bool   `short:"v" long:"verbose" description:"Debug logging on stderr"`
	LogFormat   string `long:"log-format" description:"Log format: text or json"`
	Version     bool   `short:"V" long:"version" description:"Show program version and exit"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one import and returns the process exit status.
func run(args []string, stdout io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [file ...]\n\nReads standard input when no file is given."

	files, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		return 1
	}
	if opts.Version {
		fmt.Fprintf(stdout, "growlog %s\n", version)
		return 0
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	logger, _ := logging.ForRun(logging.Setup(cfg.LogLevel, cfg.LogFormat))
	logger.Debug("configuration loaded",
		"driver", cfg.Driver,
		"table", cfg.Table,
		"batch_size", cfg.BatchSize,
		"files", len(files),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var inserted int64
	err = store.With(ctx, cfg.Driver, cfg.DSN, cfg.Table, func(st store.Store) error {
		info, err := st.ServerInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s Server version: %s\n", st.Name(), info)

		if cfg.CreateTable {
			if err := st.CreateTable(ctx); err != nil {
				return err
			}
		}

		lines := source.Open(files)
		defer lines.Close()

		inserted, err = importer.Import(ctx, st, lines, &importer.ImportOptions{
			BatchSize: cfg.BatchSize,
			Progress:  stdout,
			Logger:    logger,
		})
		return err
	})
	if err != nil {
		logger.Error("import failed", "error", err, "rows_inserted", inserted)
		report(stdout, err)
		return 1
	}

	logger.Info("import finished", "rows_inserted", inserted)
	fmt.Fprintf(stdout, "Number of rows inserted: %d\n", inserted)
	return 0
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, err
		}
	}

	if err := config.LoadEnv(); err != nil {
		slog.Warn("ignoring .env file", "error", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if opts.Driver != "" {
		cfg.Driver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	if opts.Table != "" {
		cfg.Table = opts.Table
	}
	if opts.BatchSize != nil {
		cfg.BatchSize = *opts.BatchSize
	}
	if opts.CreateTable {
		cfg.CreateTable = true
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}

	if err := cfg.Validate(store.IsRegistered); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// report prints a failure the way the import has always reported it.
func report(w io.Writer, err error) {
	if se, ok := store.AsError(err); ok {
		fmt.Fprintf(w, "Error code: %d\n", se.Code)
		fmt.Fprintf(w, "Error message: %s\n", se.Message)
		if se.SQLState != "" {
			fmt.Fprintf(w, "Error SQLSTATE: %s\n", se.SQLState)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
