package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/county-health-api/internal/db"
	"github.com/sells-group/county-health-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresCountiesForZip = `
SELECT DISTINCT county, state_abbreviation, county_code
FROM zip_county
WHERE zip = $1`

func (s *PostgresStore) CountiesForZip(ctx context.Context, zip string) ([]model.County, error) {
	rows, err := s.pool.Query(ctx, postgresCountiesForZip, zip)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: counties for zip %s", zip)
	}
	defer rows.Close()

	var counties []model.County
	for rows.Next() {
		var county, state, code *string
		if err := rows.Scan(&county, &state, &code); err != nil {
			return nil, eris.Wrap(err, "postgres: scan county")
		}
		counties = append(counties, model.County{
			County:            deref(county),
			StateAbbreviation: deref(state),
			CountyCode:        deref(code),
		})
	}
	return counties, eris.Wrap(rows.Err(), "postgres: counties iterate")
}

// Same dual state predicate as the SQLite backend: abbreviation OR the
// county_code-derived state prefix.
const postgresHealthRecords = `
SELECT
	confidence_interval_lower_bound,
	confidence_interval_upper_bound,
	county,
	county_code,
	data_release_year,
	denominator,
	fipscode,
	measure_id,
	measure_name,
	numerator,
	raw_value,
	state,
	state_code,
	year_span
FROM county_health_rankings
WHERE county = $1
AND (state = $2 OR state_code = $3)
AND measure_name = $4
ORDER BY year_span DESC`

func (s *PostgresStore) HealthRecords(ctx context.Context, county model.County, measureName string) ([]model.HealthRecord, error) {
	rows, err := s.pool.Query(ctx, postgresHealthRecords,
		county.County, county.StateAbbreviation, county.StateCodePrefix(), measureName,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: health records for %s", county.County)
	}
	defer rows.Close()

	var records []model.HealthRecord
	for rows.Next() {
		var ciLower, ciUpper, cty, countyCode, releaseYear, denominator,
			fips, measureID, measure, numerator, rawValue, state,
			stateCode, yearSpan *string

		err := rows.Scan(
			&ciLower, &ciUpper, &cty, &countyCode, &releaseYear, &denominator,
			&fips, &measureID, &measure, &numerator, &rawValue, &state,
			&stateCode, &yearSpan,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan health record")
		}

		records = append(records, model.HealthRecord{
			ConfidenceIntervalLowerBound: deref(ciLower),
			ConfidenceIntervalUpperBound: deref(ciUpper),
			County:                       deref(cty),
			CountyCode:                   deref(countyCode),
			DataReleaseYear:              deref(releaseYear),
			Denominator:                  deref(denominator),
			FIPSCode:                     deref(fips),
			MeasureID:                    deref(measureID),
			MeasureName:                  deref(measure),
			Numerator:                    deref(numerator),
			RawValue:                     deref(rawValue),
			State:                        deref(state),
			StateCode:                    deref(stateCode),
			YearSpan:                     deref(yearSpan),
		})
	}
	return records, eris.Wrap(rows.Err(), "postgres: health records iterate")
}

const postgresColumns = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

func (s *PostgresStore) Tables(ctx context.Context) (map[string]TableInfo, error) {
	rows, err := s.pool.Query(ctx, postgresColumns)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tables")
	}
	defer rows.Close()

	info := map[string]TableInfo{}
	for rows.Next() {
		var table, col, typ string
		if err := rows.Scan(&table, &col, &typ); err != nil {
			return nil, eris.Wrap(err, "postgres: scan column")
		}
		ti := info[table]
		if ti.Types == nil {
			ti.Types = map[string]string{}
		}
		ti.Columns = append(ti.Columns, col)
		ti.Types[col] = typ
		info[table] = ti
	}
	return info, eris.Wrap(rows.Err(), "postgres: list tables iterate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
