package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

const driverName = "postgres"

type Options struct {
	URL                         string
	DisablePreparedBinaryResult bool
	MaxOpenConns                int
	ServiceName                 string
	PingTimeout                 time.Duration
}

// Open returns an instrumented Postgres pool that has answered a ping.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	traceOpts := []otelsql.Option{
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(FormatQueryForTrace),
	}
	if opts.ServiceName != "" {
		traceOpts = append(traceOpts, otelsql.WithAttributes(attribute.String("service.name", opts.ServiceName)))
	}
	if name := NameFromURL(opts.URL); name != "" {
		traceOpts = append(traceOpts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open(driverName, NormalizeURL(opts.URL, opts.DisablePreparedBinaryResult), traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen < 1 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(1, maxOpen/2))
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	otelsql.ReportDBStatsMetrics(db.DB, traceOpts...)
	return db, nil
}
