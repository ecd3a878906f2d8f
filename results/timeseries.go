package results

import (
	"fmt"
)

// TimeSeriesRecord is one long row of a reporting-variable time series
// (spec.md §4.7 step 4): one (timestamp, zone, variable, units, value)
// tuple at the variable's native reporting frequency.
type TimeSeriesRecord struct {
	Timestamp string // ISO-ish string per frequency, built by timestampFor
	Zone      string
	Variable  string
	Units     string
	Value     float64
	Frequency string
}

// recognizedFrequencies is the fixed set of reporting frequencies RE
// partitions time-series output by (spec.md §4.7 step 4).
var recognizedFrequencies = []string{"Timestep", "Hourly", "Daily", "Monthly", "Annual"}

// TimeSeries extracts every ReportData row joined against its
// dictionary entry and timestamp, grouped by reporting frequency.
// Grounded on the engine's standard ReportDataDictionary/ReportData/Time
// schema (dictionary carries KeyValue/Name/Units/ReportingFrequency;
// Time carries the calendar fields used to build each row's
// timestamp string).
func (s *Source) TimeSeries() (map[string][]TimeSeriesRecord, error) {
	if !s.tableExists("ReportData") || !s.tableExists("ReportDataDictionary") || !s.tableExists("Time") {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT
			d.KeyValue, d.Name, COALESCE(d.Units,''), d.ReportingFrequency,
			t.Year, t.Month, t.Day, t.Hour, t.Minute,
			r.Value
		FROM ReportData r
		JOIN ReportDataDictionary d ON r.ReportDataDictionaryIndex = d.ReportDataDictionaryIndex
		JOIN Time t ON r.TimeIndex = t.TimeIndex
	`)
	if err != nil {
		return nil, fmt.Errorf("results: query ReportData: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]TimeSeriesRecord)
	for rows.Next() {
		var zone, variable, units, freq string
		var year, month, day, hour, minute int
		var value float64
		if err := rows.Scan(&zone, &variable, &units, &freq, &year, &month, &day, &hour, &minute, &value); err != nil {
			return nil, fmt.Errorf("results: scan ReportData row: %w", err)
		}
		rec := TimeSeriesRecord{
			Timestamp: timestampFor(freq, year, month, day, hour, minute),
			Zone:      zone,
			Variable:  variable,
			Units:     units,
			Value:     value,
			Frequency: freq,
		}
		out[freq] = append(out[freq], rec)
	}
	return out, rows.Err()
}

// timestampFor formats a Time row's calendar fields according to the
// spec's per-frequency date-column convention (spec.md §4.7: "Date
// column format per frequency: YYYY-MM-DD daily, YYYY-MM monthly,
// YYYY-MM-DD_HH hourly, YYYY yearly").
func timestampFor(freq string, year, month, day, hour, minute int) string {
	switch freq {
	case "Annual":
		return fmt.Sprintf("%04d", year)
	case "Monthly":
		return fmt.Sprintf("%04d-%02d", year, month)
	case "Daily":
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	case "Hourly":
		return fmt.Sprintf("%04d-%02d-%02d_%02d", year, month, day, hour)
	default: // Timestep: sub-hourly, keep the minute component
		return fmt.Sprintf("%04d-%02d-%02d_%02d:%02d", year, month, day, hour, minute)
	}
}
