package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const batchSize = 1000

// indexedColumns is the fixed set of commonly queried key columns that get
// a secondary index when present in a loaded file.
var indexedColumns = map[string]struct{}{
	"zip":          {},
	"county":       {},
	"state":        {},
	"county_code":  {},
	"state_code":   {},
	"measure_name": {},
	"fipscode":     {},
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createTableSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
}

func indexSQL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s(%s)",
		quoteIdent("idx_"+table+"_"+column), quoteIdent(table), quoteIdent(column))
}

// LoadSQLite loads one CSV file into the SQLite database at dsn. The target
// table is dropped and recreated, so reloading the same file is idempotent.
// The whole load runs in one transaction: a read or insert failure rolls
// everything back, including the drop. Returns the number of rows inserted.
func LoadSQLite(ctx context.Context, dsn, csvPath string) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return 0, eris.Wrap(err, "loader: open sqlite")
	}
	defer database.Close()

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

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "loader: begin tx")
	}
	defer func() {
		_ = tx.Rollback() // no-op once committed
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return 0, eris.Wrapf(err, "loader: drop table %s", table)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, columns)); err != nil {
		return 0, eris.Wrapf(err, "loader: create table %s", table)
	}
	for _, col := range columns {
		if _, ok := indexedColumns[col]; !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, indexSQL(table, col)); err != nil {
			return 0, eris.Wrapf(err, "loader: create index on %s.%s", table, col)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: prepare insert into %s", table)
	}
	defer stmt.Close()

	rowCh, errCh := streamRows(ctx, reader)

	var total int64
	for record := range rowCh {
		if _, err := stmt.ExecContext(ctx, rowArgs(record)...); err != nil {
			return 0, eris.Wrapf(err, "loader: insert row %d into %s", total+1, table)
		}
		total++
		if total%batchSize == 0 {
			log.Debug("inserted rows", zap.Int64("rows", total))
		}
	}
	if err := <-errCh; err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "loader: commit %s", table)
	}

	log.Info("load complete", zap.Int64("rows", total))
	return total, nil
}
