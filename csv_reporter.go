package malasim

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// CSVReporter is a Reporter that appends each snapshot as comma
// delimited rows to a single output file, grounded on the teacher's
// CSVLogger.WriteX-per-channel shape (SetBasePath + AppendToFile)
// collapsed here into one open file handle plus an encoding/csv
// writer, since the channel-of-structs fan-in pattern the teacher used
// to decouple producers from the writer has no counterpart once
// transmission runs synchronously within a day-step.
type CSVReporter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVReporter creates a reporter that will write to path, creating
// (or truncating) it on BeforeRun.
func NewCSVReporter(path string) *CSVReporter {
	return &CSVReporter{path: path}
}

func (r *CSVReporter) BeforeRun(m *Model) error {
	f, err := os.Create(r.path)
	if err != nil {
		return errors.Wrapf(err, "creating csv reporter output %q", r.path)
	}
	r.file = f
	r.writer = csv.NewWriter(f)
	return r.writer.Write([]string{"day", "location_id", "age_class", "therapy_id", "genotype_id", "kind", "value"})
}

func (r *CSVReporter) PerStep(m *Model) error {
	for _, row := range snapshotRows(m, m.Scheduler.CurrentTime) {
		record := []string{
			fmt.Sprintf("%d", row.Day),
			fmt.Sprintf("%d", row.LocationID),
			fmt.Sprintf("%d", row.AgeClass),
			fmt.Sprintf("%d", row.TherapyID),
			fmt.Sprintf("%d", row.GenotypeID),
			row.Kind,
			fmt.Sprintf("%g", row.Value),
		}
		if err := r.writer.Write(record); err != nil {
			return errors.Wrap(err, "writing csv reporter row")
		}
	}
	r.writer.Flush()
	return r.writer.Error()
}

func (r *CSVReporter) AfterRun(m *Model) error {
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return err
	}
	return r.file.Close()
}
