package loader

import (
	"context"
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/county-health-api/internal/db"
)

// LoadPostgres loads one CSV file into PostgreSQL with the same semantics as
// LoadSQLite, using the COPY protocol in batches.
func LoadPostgres(ctx context.Context, pool db.Pool, csvPath string) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f, err := os.Open(csvPath)
	if err != nil {
		return 0, eris.Wrap(err, "loader: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	columns, err := readHeader(reader)
	if err != nil {
		return 0, err
	}
	table := TableName(csvPath)

	log := zap.L().With(zap.String("table", table), zap.String("csv", csvPath))
	log.Info("loading csv", zap.Int("columns", len(columns)))

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return 0, eris.Wrapf(err, "loader: drop table %s", table)
	}
	if _, err := pool.Exec(ctx, createTableSQL(table, columns)); err != nil {
		return 0, eris.Wrapf(err, "loader: create table %s", table)
	}
	for _, col := range columns {
		if _, ok := indexedColumns[col]; !ok {
			continue
		}
		if _, err := pool.Exec(ctx, indexSQL(table, col)); err != nil {
			return 0, eris.Wrapf(err, "loader: create index on %s.%s", table, col)
		}
	}

	rowCh, errCh := streamRows(ctx, reader)

	var total int64
	batch := make([][]any, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.CopyFrom(ctx, pool, table, columns, batch)
		if err != nil {
			return eris.Wrapf(err, "loader: copy batch into %s", table)
		}
		total += n
		batch = batch[:0]
		return nil
	}

	for record := range rowCh {
		batch = append(batch, rowArgs(record))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := <-errCh; err != nil {
		return 0, err
	}
	if err := flush(); err != nil {
		return 0, err
	}

	log.Info("load complete", zap.Int64("rows", total))
	return total, nil
}
