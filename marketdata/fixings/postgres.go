package fixings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore reads fixings from the ibor_fixings table:
//
//	CREATE TABLE ibor_fixings (
//	    index_name  TEXT    NOT NULL,
//	    fixing_date DATE    NOT NULL,
//	    rate        NUMERIC NOT NULL,
//	    PRIMARY KEY (index_name, fixing_date)
//	);
//
// Rates are stored as decimals (0.01 == 1%).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed fixing store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Series implements Store.
func (s *PostgresStore) Series(ctx context.Context, index string, from, to time.Time) (*TimeSeries, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fixing_date, rate::TEXT
		 FROM ibor_fixings
		 WHERE index_name = $1 AND fixing_date BETWEEN $2 AND $3
		 ORDER BY fixing_date`,
		index, from, to)
	if err != nil {
		return nil, fmt.Errorf("query fixings %s: %w", index, err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var d time.Time
		var rate string
		if err := rows.Scan(&d, &rate); err != nil {
			return nil, fmt.Errorf("scan fixing %s: %w", index, err)
		}
		v, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse fixing %s on %s: %w", index, d.Format("2006-01-02"), err)
		}
		dates = append(dates, d)
		values = append(values, v.InexactFloat64())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read fixings %s: %w", index, err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("postgres store %s: %w", index, ErrNotFound)
	}
	return NewTimeSeries(dates, values)
}
