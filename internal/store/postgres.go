package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/chakri-sirigiri/go-statements-parser/internal/fields"
	"github.com/chakri-sirigiri/go-statements-parser/internal/model"
)

// Postgres stores records in a transactions table with one NUMERIC
// column per canonical field.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the DSN and verifies the connection.
// Run MigrateUp before first use.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

var (
	pgColumns   = append([]string{"institution", "statement_date", "source_file"}, fields.Names()...)
	pgInsertSQL = buildInsertSQL()
	pgSelectSQL = "SELECT " + strings.Join(pgColumns, ", ") + " FROM transactions"
)

func buildInsertSQL() string {
	ph := make([]string, len(pgColumns))
	for i := range pgColumns {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO transactions (%s) VALUES (%s)",
		strings.Join(pgColumns, ", "), strings.Join(ph, ", "))
}

// FindKeys returns the dedupe keys stored for an institution and date.
func (s *Postgres) FindKeys(ctx context.Context, institution string, date time.Time) ([]DedupeKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source_file, regular_pay, bonus, gross_pay, net_pay
		 FROM transactions
		 WHERE institution = $1 AND statement_date = $2`,
		institution, date)
	if err != nil {
		return nil, fmt.Errorf("querying dedupe keys: %w", err)
	}
	defer rows.Close()

	var keys []DedupeKey
	for rows.Next() {
		var (
			src           string
			rp, b, gp, np decimal.NullDecimal
		)
		if err := rows.Scan(&src, &rp, &b, &gp, &np); err != nil {
			return nil, fmt.Errorf("scanning dedupe key: %w", err)
		}
		keys = append(keys, DedupeKey{
			SourceFile: src,
			RegularPay: rp.Decimal,
			Bonus:      b.Decimal,
			GrossPay:   gp.Decimal,
			NetPay:     np.Decimal,
		})
	}
	return keys, rows.Err()
}

// Insert appends one record. Absent fields are stored as NULL.
func (s *Postgres) Insert(ctx context.Context, rec *model.TransactionRecord) error {
	args := make([]any, 0, len(pgColumns))
	args = append(args, rec.Institution, rec.StatementDate, rec.SourceFile)
	for _, name := range fields.Names() {
		amt, ok := rec.Amount(name)
		args = append(args, decimal.NullDecimal{Decimal: amt, Valid: ok})
	}

	if _, err := s.pool.Exec(ctx, pgInsertSQL, args...); err != nil {
		return fmt.Errorf("inserting record for %s: %w", rec.SourceFile, err)
	}
	return nil
}

// QueryPeriod returns an institution's records inside the period,
// ordered by statement date, then source file. The date window is
// computed here so the predicate stays a plain range comparison.
func (s *Postgres) QueryPeriod(ctx context.Context, institution string, period model.Period) ([]*model.TransactionRecord, error) {
	from := time.Date(period.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if !period.WholeYear() {
		to = time.Date(period.Year, time.Month(period.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}

	rows, err := s.pool.Query(ctx,
		pgSelectSQL+` WHERE institution = $1 AND statement_date >= $2 AND statement_date < $3
		 ORDER BY statement_date, source_file`,
		institution, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying period %s: %w", period, err)
	}
	defer rows.Close()

	var recs []*model.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.TransactionRecord, error) {
	var (
		institution string
		date        time.Time
		sourceFile  string
	)
	names := fields.Names()
	amounts := make([]decimal.NullDecimal, len(names))

	dests := make([]any, 0, len(pgColumns))
	dests = append(dests, &institution, &date, &sourceFile)
	for i := range amounts {
		dests = append(dests, &amounts[i])
	}
	if err := row.Scan(dests...); err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec := model.NewTransactionRecord(institution, date, sourceFile)
	for i, name := range names {
		if amounts[i].Valid {
			rec.Set(name, amounts[i].Decimal)
		}
	}
	return rec, nil
}

// Purge deletes an institution's records, narrowed to one date when
// given.
func (s *Postgres) Purge(ctx context.Context, institution string, date *time.Time) (int, error) {
	sql := `DELETE FROM transactions WHERE institution = $1`
	args := []any{institution}
	if date != nil {
		sql += ` AND statement_date = $2`
		args = append(args, *date)
	}

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purging records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the connection pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
