package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/county-health-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteCountiesForZip = `
SELECT DISTINCT county, state_abbreviation, county_code
FROM zip_county
WHERE zip = ?`

func (s *SQLiteStore) CountiesForZip(ctx context.Context, zip string) ([]model.County, error) {
	rows, err := s.db.QueryContext(ctx, sqliteCountiesForZip, zip)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: counties for zip %s", zip)
	}
	defer rows.Close()

	var counties []model.County
	for rows.Next() {
		var county, state, code sql.NullString
		if err := rows.Scan(&county, &state, &code); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan county")
		}
		counties = append(counties, model.County{
			County:            county.String,
			StateAbbreviation: state.String,
			CountyCode:        code.String,
		})
	}
	return counties, eris.Wrap(rows.Err(), "sqlite: counties iterate")
}

// The state predicate matches on either the two-letter abbreviation or the
// state prefix of county_code; source rows encode state inconsistently, so
// both branches are required.
const sqliteHealthRecords = `
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
WHERE county = ?
AND (state = ? OR state_code = ?)
AND measure_name = ?
ORDER BY year_span DESC`

func (s *SQLiteStore) HealthRecords(ctx context.Context, county model.County, measureName string) ([]model.HealthRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteHealthRecords,
		county.County, county.StateAbbreviation, county.StateCodePrefix(), measureName,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: health records for %s", county.County)
	}
	defer rows.Close()

	var records []model.HealthRecord
	for rows.Next() {
		rec, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: health records iterate")
}

func scanHealthRecord(rows *sql.Rows) (model.HealthRecord, error) {
	var ciLower, ciUpper, county, countyCode, releaseYear, denominator,
		fips, measureID, measureName, numerator, rawValue, state,
		stateCode, yearSpan sql.NullString

	err := rows.Scan(
		&ciLower, &ciUpper, &county, &countyCode, &releaseYear, &denominator,
		&fips, &measureID, &measureName, &numerator, &rawValue, &state,
		&stateCode, &yearSpan,
	)
	if err != nil {
		return model.HealthRecord{}, eris.Wrap(err, "sqlite: scan health record")
	}

	return model.HealthRecord{
		ConfidenceIntervalLowerBound: ciLower.String,
		ConfidenceIntervalUpperBound: ciUpper.String,
		County:                       county.String,
		CountyCode:                   countyCode.String,
		DataReleaseYear:              releaseYear.String,
		Denominator:                  denominator.String,
		FIPSCode:                     fips.String,
		MeasureID:                    measureID.String,
		MeasureName:                  measureName.String,
		Numerator:                    numerator.String,
		RawValue:                     rawValue.String,
		State:                        state.String,
		StateCode:                    stateCode.String,
		YearSpan:                     yearSpan.String,
	}, nil
}

func (s *SQLiteStore) Tables(ctx context.Context) (map[string]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan table name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables iterate")
	}

	info := make(map[string]TableInfo, len(names))
	for _, name := range names {
		ti, err := s.tableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		info[name] = ti
	}
	return info, nil
}

func (s *SQLiteStore) tableInfo(ctx context.Context, table string) (TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type FROM pragma_table_info(?)`, table,
	)
	if err != nil {
		return TableInfo{}, eris.Wrapf(err, "sqlite: table info %s", table)
	}
	defer rows.Close()

	ti := TableInfo{Types: map[string]string{}}
	for rows.Next() {
		var col, typ string
		if err := rows.Scan(&col, &typ); err != nil {
			return TableInfo{}, eris.Wrapf(err, "sqlite: scan column of %s", table)
		}
		ti.Columns = append(ti.Columns, col)
		ti.Types[col] = typ
	}
	return ti, eris.Wrapf(rows.Err(), "sqlite: table info %s iterate", table)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
