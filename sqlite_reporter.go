package malasim

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteReporter is a Reporter that inserts each snapshot row into a
// single "snapshot" table of a SQLite database, grounded on the
// teacher's SQLiteLogger.Init create-table-then-insert shape (one
// table per data kind there; collapsed here into one wide table since
// this domain's snapshot rows already share a common shape via
// reporterRow).
type SQLiteReporter struct {
	path string
	db   *sql.DB
}

// NewSQLiteReporter creates a reporter that will open (and create the
// schema in) the database at path on BeforeRun.
func NewSQLiteReporter(path string) *SQLiteReporter {
	return &SQLiteReporter{path: path}
}

func (r *SQLiteReporter) BeforeRun(m *Model) error {
	db, err := sql.Open("sqlite3", r.path)
	if err != nil {
		return errors.Wrapf(err, "opening sqlite reporter database %q", r.path)
	}
	r.db = db
	_, err = db.Exec(`create table if not exists snapshot (
		day integer, location_id integer, age_class integer,
		therapy_id integer, genotype_id integer, kind text, value real
	)`)
	if err != nil {
		return errors.Wrap(err, "creating sqlite reporter schema")
	}
	return nil
}

func (r *SQLiteReporter) PerStep(m *Model) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning sqlite reporter transaction")
	}
	stmt, err := tx.Prepare(`insert into snapshot (
		day, location_id, age_class, therapy_id, genotype_id, kind, value
	) values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing sqlite reporter insert")
	}
	defer stmt.Close()

	for _, row := range snapshotRows(m, m.Scheduler.CurrentTime) {
		if _, err := stmt.Exec(row.Day, row.LocationID, row.AgeClass, row.TherapyID, row.GenotypeID, row.Kind, row.Value); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "inserting sqlite reporter row")
		}
	}
	return tx.Commit()
}

func (r *SQLiteReporter) AfterRun(m *Model) error {
	return r.db.Close()
}
