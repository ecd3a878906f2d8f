package results

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes rows as a parquet file at path, inferring the
// schema from T via reflection (parquet-go's generic writer). Named,
// not grounded in any in-pack Go repo; github.com/parquet-go/parquet-go
// is the columnar output format other_examples/manifests/AltairaLabs-Omnia
// depends on, and the nearest ecosystem fit for RE's parsed_data/ output.
//
// The file is written to "<path>.tmp" and renamed into place on
// success, so a cancelled worker never leaves a partial output behind
// (spec.md §5 Cancellation).
func WriteParquet[T any](path string, rows []T) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("results: create %s: %w", tmp, err)
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		w.Close()
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("results: write %s: %w", tmp, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("results: close %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("results: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("results: rename %s: %w", tmp, err)
	}
	return nil
}

// ReadParquet reads every row of a parquet file written by WriteParquet.
func ReadParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("results: read %s: %w", path, err)
	}
	return rows, nil
}
