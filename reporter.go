package malasim

// reporterRow is one emitted monthly/daily record, shared by every
// Reporter backend before it is formatted for its sink.
type reporterRow struct {
	Day        int
	LocationID int
	AgeClass   int
	TherapyID  int
	GenotypeID int
	Value      float64
	Kind       string
}

// snapshotRows builds the per-location/age-class prevalence rows and
// the per-therapy treatment/failure rows for the current MDC state,
// shared by both reporter backends.
func snapshotRows(m *Model, day int) []reporterRow {
	var rows []reporterRow
	if m.MDC == nil {
		return rows
	}
	for loc := 0; loc < m.MDC.NumLocations; loc++ {
		for ac := 0; ac < m.MDC.NumAgeClasses; ac++ {
			pd := m.MDC.PersonDays[loc][ac]
			if pd == 0 {
				continue
			}
			prevalence := float64(m.MDC.BloodSlidePositive[loc][ac]) / float64(pd)
			rows = append(rows, reporterRow{Day: day, LocationID: loc, AgeClass: ac, Value: prevalence, Kind: "prevalence"})
		}
	}
	for therapyID, n := range m.MDC.CumulativeTreatments {
		rows = append(rows, reporterRow{Day: day, TherapyID: therapyID, Value: float64(n), Kind: "treatments"})
	}
	for therapyID, n := range m.MDC.CumulativeFailures {
		rows = append(rows, reporterRow{Day: day, TherapyID: therapyID, Value: float64(n), Kind: "failures"})
	}
	for genotypeID, n := range m.MDC.GenotypeFrequency {
		rows = append(rows, reporterRow{Day: day, GenotypeID: genotypeID, Value: float64(n), Kind: "genotype_frequency"})
	}
	return rows
}
