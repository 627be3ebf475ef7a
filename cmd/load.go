package main

import (
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/county-health-api/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load <database> <csv>",
	Short: "Load a CSV file into the store as an all-text table",
	Long: `Loads one CSV file into the store. The table name is derived from the
file name, headers become lower-cased column names, every column is TEXT,
and commonly queried key columns are indexed. The table is dropped and
recreated, so reloading is idempotent.

The database argument is a SQLite path, or a postgres:// URL for the
PostgreSQL backend.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dsn, csvPath := args[0], args[1]

		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return eris.Wrap(err, "load: connect postgres")
			}
			defer pool.Close()

			if _, err := loader.LoadPostgres(ctx, pool, csvPath); err != nil {
				return eris.Wrap(err, "load csv")
			}
			return nil
		}

		if _, err := loader.LoadSQLite(ctx, dsn, csvPath); err != nil {
			return eris.Wrap(err, "load csv")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
