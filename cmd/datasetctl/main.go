// datasetctl is the operational companion to the HomeFinder server. It
// validates and inspects listing datasets, manages the database schema,
// and seeds a database from a cleaned CSV file.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/infrastructure/config"
	"github.com/homefinder/backend/internal/infrastructure/dataset"
	"github.com/homefinder/backend/internal/infrastructure/logger"
	"github.com/homefinder/backend/internal/infrastructure/migration"
	"github.com/homefinder/backend/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	switch command {
	case "validate":
		runValidate(ctx, cfg, log)
	case "stats":
		runStats(ctx, cfg, log)
	case "head":
		n := 10
		if len(args) > 1 {
			n, err = strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				log.Fatal("Invalid row count", zap.String("value", args[1]))
			}
		}
		runHead(ctx, cfg, log, n)
	case "seed":
		if len(args) < 2 {
			log.Fatal("CSV path required. Usage: datasetctl seed <csv-path>")
		}
		runSeed(ctx, cfg, log, args[1])
	case "migrate":
		if len(args) < 2 {
			log.Fatal("Migration command required. Usage: datasetctl migrate <up|down|step|version|force|drop>")
		}
		runMigrate(cfg, log, resolveMigrationsPath(migrationsPath), args[1:])
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// buildSource constructs the dataset source the server would use for the
// current configuration.
func buildSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (dataset.Source, func(), error) {
	noop := func() {}

	switch cfg.Dataset.Kind {
	case "file":
		return dataset.NewFileSource(cfg.Dataset.Path), noop, nil
	case "s3":
		src, err := dataset.NewS3Source(ctx, dataset.S3Config{
			Bucket:       cfg.Dataset.S3.Bucket,
			Key:          cfg.Dataset.S3.Key,
			Region:       cfg.Dataset.S3.Region,
			Endpoint:     cfg.Dataset.S3.Endpoint,
			AccessKey:    cfg.Dataset.S3.AccessKey,
			SecretKey:    cfg.Dataset.S3.SecretKey,
			UsePathStyle: cfg.Dataset.S3.UsePathStyle,
			UseSSL:       cfg.Dataset.S3.UseSSL,
		}, dataset.WithS3Logger(log))
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	case "database":
		db, err := persistence.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}
		return dataset.NewDatabaseSource(db.DB, cfg.Dataset.Table), cleanup, nil
	default:
		return nil, noop, fmt.Errorf("unknown dataset kind %q", cfg.Dataset.Kind)
	}
}

func loadTable(ctx context.Context, cfg *config.Config, log *zap.Logger) (*loadResult, error) {
	source, cleanup, err := buildSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	start := time.Now()
	table, report, err := dataset.Load(ctx, source, dataset.LoadOptions{
		CurrencyPrefix: cfg.Dataset.CurrencyPrefix,
		MaxWarnings:    cfg.Dataset.MaxParseWarnings,
	})
	if err != nil {
		return nil, err
	}

	return &loadResult{
		uri:      source.URI(),
		table:    table,
		report:   report,
		duration: time.Since(start),
	}, nil
}

type loadResult struct {
	uri      string
	table    *listing.Table
	report   *dataset.Report
	duration time.Duration
}

func runValidate(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	res, err := loadTable(ctx, cfg, log)
	if err != nil {
		log.Fatal("Dataset validation failed", zap.Error(err))
	}

	fields := append([]zap.Field{
		zap.String("source", res.uri),
		zap.Duration("duration", res.duration),
	}, res.report.Fields()...)
	log.Info("Dataset is valid", fields...)

	for _, w := range res.report.Warnings.Warnings() {
		log.Warn("Row warning", zap.String("warning", w.Error()))
	}
}

func runStats(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	res, err := loadTable(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to load dataset", zap.Error(err))
	}

	stats := res.table.Stats()
	fmt.Printf("Source:     %s\n", res.uri)
	fmt.Printf("Rows:       %d (read %d, dropped %d)\n", res.table.Len(), res.report.RowsRead, res.report.Dropped())
	fmt.Printf("Types:      %v\n", res.table.Types())
	fmt.Printf("Cities:     %v\n", res.table.Cities())
	fmt.Printf("Bedrooms:   %d - %d\n", stats.MinBedrooms, stats.MaxBedrooms)
	fmt.Printf("Bathrooms:  %d - %d\n", stats.MinBathrooms, stats.MaxBathrooms)
	fmt.Printf("Size (sqm): %s - %s\n", stats.MinSize.String(), stats.MaxSize.String())
	fmt.Printf("Price:      %s - %s\n", stats.MinPrice.String(), stats.MaxPrice.String())
}

func runHead(ctx context.Context, cfg *config.Config, log *zap.Logger, n int) {
	res, err := loadTable(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to load dataset", zap.Error(err))
	}

	listings := res.table.ListingsByPrice()
	if n > len(listings) {
		n = len(listings)
	}
	for _, l := range listings[:n] {
		fmt.Printf("%-38s %-12s %-10s %db/%db %8s sqm  %s\n",
			l.ID, l.Type, l.City, l.Bedrooms, l.Bathrooms, l.SizeSqm.String(), l.FormattedPrice)
	}
}

func runSeed(ctx context.Context, cfg *config.Config, log *zap.Logger, csvPath string) {
	table, report, err := dataset.Load(ctx, dataset.NewFileSource(csvPath), dataset.LoadOptions{
		CurrencyPrefix: cfg.Dataset.CurrencyPrefix,
		MaxWarnings:    cfg.Dataset.MaxParseWarnings,
	})
	if err != nil {
		log.Fatal("Failed to load CSV", zap.String("path", csvPath), zap.Error(err))
	}
	log.Info("CSV loaded", report.Fields()...)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := dataset.SeedListings(ctx, db.DB, cfg.Dataset.Table, table.Listings()); err != nil {
		log.Fatal("Failed to seed listings", zap.Error(err))
	}

	log.Info("Listings seeded",
		zap.String("table", cfg.Dataset.Table),
		zap.Int("rows", table.Len()),
	)
}

func runMigrate(cfg *config.Config, log *zap.Logger, migrationsPath string, args []string) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	command := args[0]
	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: datasetctl migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: datasetctl migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	case "drop":
		confirm := false
		for _, arg := range args[1:] {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			log.Fatal("Drop cancelled. Use 'datasetctl migrate drop -confirm' to confirm.")
		}
		if err := m.Drop(); err != nil {
			log.Fatal("Drop failed", zap.Error(err))
		}

	default:
		log.Error("Unknown migration command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func resolveMigrationsPath(flagPath string) string {
	path := flagPath
	if path == "" {
		if _, err := os.Stat(defaultMigrationsPath); err == nil {
			path = defaultMigrationsPath
		} else if execPath, err := os.Executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
		if path == "" {
			path = defaultMigrationsPath
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func printUsage() {
	fmt.Println(`HomeFinder Dataset Tool

Usage:
  datasetctl [flags] <command> [arguments]

Commands:
  validate                  Load the configured dataset and report cleaning results
  stats                     Print dataset statistics (rows, types, cities, ranges)
  head [n]                  Print the n cheapest listings (default 10)
  seed <csv-path>           Load a CSV file and seed it into the database
  migrate up                Apply all pending migrations
  migrate down              Roll back all migrations
  migrate step <n>          Apply n migrations (positive=up, negative=down)
  migrate version           Show current migration version
  migrate force <version>   Force set migration version (use with caution)
  migrate drop -confirm     Drop all database objects (DANGEROUS)

Flags:
  -path string              Path to migrations directory (default: ./migrations)
  -log-level string         Log level: debug, info, warn, error (default: info)

Examples:
  # Validate the configured dataset source
  datasetctl validate

  # Seed a database from a CSV export
  datasetctl seed data/listings.csv

  # Apply schema migrations
  datasetctl migrate up`)
}
