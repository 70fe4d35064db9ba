package snapshot

import (
	"context"
	"fmt"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/database"
)

// PostgresSource reads tables stored in long format:
//
//	snapshot_values(kind, symbol, year, quarter, field, num, txt)
//
// One row per (entity, period, field). txt holds attributes such as
// CAL_GROUP; num holds metric values (NULL when undisclosed).
type PostgresSource struct {
	db database.Querier
}

// NewPostgresSource creates a source over a pool
func NewPostgresSource(db database.Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

const loadSQL = `
SELECT symbol, year, quarter, field, COALESCE(num, 'NaN'::float8), COALESCE(txt, '')
FROM snapshot_values
WHERE kind = $1
ORDER BY symbol, year, quarter, field`

func (s *PostgresSource) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	rows, err := s.db.Query(ctx, loadSQL, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s snapshot: %w", kind, err)
	}
	defer rows.Close()

	type key struct {
		symbol string
		period contracts.Period
	}
	index := make(map[key]int)
	var out []contracts.MetricRow
	var columns []string
	seenCol := make(map[string]bool)

	for rows.Next() {
		var (
			symbol, field, txt string
			year, quarter      int32
			num                float64
		)
		if err := rows.Scan(&symbol, &year, &quarter, &field, &num, &txt); err != nil {
			return nil, fmt.Errorf("failed to scan %s snapshot row: %w", kind, err)
		}

		p := contracts.Period{Year: int(year), Quarter: int(quarter)}
		if !p.Valid() {
			return nil, fmt.Errorf("invalid period %d/%d for %s", year, quarter, symbol)
		}
		if symbol == "" {
			symbol = MarketEntity
		}

		k := key{symbol, p}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, contracts.MetricRow{
				Entity: symbol,
				Period: p,
				Attrs:  map[string]string{},
				Values: map[string]contracts.Value{},
			})
		}

		if txt != "" {
			out[i].Attrs[field] = txt
			continue
		}
		out[i].Values[field] = contracts.Some(num)
		if !seenCol[field] {
			seenCol[field] = true
			columns = append(columns, field)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s snapshot: %w", kind, err)
	}

	return contracts.NewDatasetWithColumns(columns, out)
}
