package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
)

// LoadOptions tune one load pass. Zero values fall back to defaults.
type LoadOptions struct {
	// CurrencyPrefix is prepended to formatted prices, default "EGP"
	CurrencyPrefix string
	// MaxWarnings caps the kept per-row warnings in the report
	MaxWarnings int
}

// Load opens the source and runs the full pipeline: parse the header,
// validate the schema, read the rows, clean. A missing required column
// returns a schema error and no table.
func Load(ctx context.Context, source Source, opts LoadOptions) (*listing.Table, *Report, error) {
	rc, err := source.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	return LoadFromReader(rc, opts)
}

// LoadFromReader runs the pipeline over an already-open dataset stream
func LoadFromReader(r io.Reader, opts LoadOptions) (*listing.Table, *Report, error) {
	parser, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}
	if missing := parser.ValidateHeaders(RequiredColumns); len(missing) > 0 {
		return nil, nil, shared.NewSchemaError(missing)
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset rows: %w", err)
	}

	var cleanerOpts []CleanerOption
	if opts.CurrencyPrefix != "" {
		cleanerOpts = append(cleanerOpts, WithCurrencyPrefix(opts.CurrencyPrefix))
	}
	if opts.MaxWarnings > 0 {
		cleanerOpts = append(cleanerOpts, WithMaxWarnings(opts.MaxWarnings))
	}

	table, report := NewCleaner(cleanerOpts...).Clean(rows)
	return table, report, nil
}
