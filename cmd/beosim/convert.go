package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bldgsim/beosim/paramassign"
)

// readFile reads path and returns its contents as a string.
func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeFile creates path's parent directory if needed and writes
// contents, overwriting any existing file.
func writeFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadJSON reads and decodes one JSON document from path into a fresh
// value of type T.
func loadJSON[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// writeJSON marshals v as indented JSON to path, creating or
// truncating the file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OverrideRequest is the on-disk JSON shape for one override record
// (spec.md §3, §9's NumericFixed/NumericRange/ScheduleBlocks sum
// type), using a readable string tag instead of paramassign's int
// enum so config files stay human-editable.
type OverrideRequest struct {
	Kind             string   `json:"kind"`
	BuildingID       string   `json:"building_id,omitempty"`
	Function         string   `json:"function,omitempty"`
	SubType          string   `json:"sub_type,omitempty"`
	AgeRange         string   `json:"age_range,omitempty"`
	Scenario         string   `json:"scenario,omitempty"`
	CalibrationStage string   `json:"calibration_stage,omitempty"`
	ParamName        string   `json:"param_name"`
	FixedValue       *float64 `json:"fixed_value,omitempty"`
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	Blocks           any      `json:"blocks,omitempty"`
}

func (r OverrideRequest) toOverride() (paramassign.Override, error) {
	o := paramassign.Override{
		BuildingID:       r.BuildingID,
		Function:         r.Function,
		SubType:          r.SubType,
		AgeRange:         r.AgeRange,
		Scenario:         r.Scenario,
		CalibrationStage: r.CalibrationStage,
		ParamName:        r.ParamName,
		FixedValue:       r.FixedValue,
		Min:              r.Min,
		Max:              r.Max,
		Blocks:           r.Blocks,
	}
	switch r.Kind {
	case "numeric_fixed":
		o.Kind = paramassign.NumericFixed
	case "numeric_range":
		o.Kind = paramassign.NumericRange
	case "schedule_blocks":
		o.Kind = paramassign.ScheduleBlocksKind
	default:
		return o, fmt.Errorf("override %q: unknown kind %q", r.ParamName, r.Kind)
	}
	return o, nil
}

func toOverrides(reqs []OverrideRequest) ([]paramassign.Override, error) {
	out := make([]paramassign.Override, 0, len(reqs))
	for _, r := range reqs {
		o, err := r.toOverride()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// QueryRequest is the on-disk JSON shape of one PA resolution request.
type QueryRequest struct {
	BuildingID       string            `json:"building_id"`
	Function         string            `json:"function"`
	SubType          string            `json:"sub_type"`
	AgeRange         string            `json:"age_range"`
	Scenario         string            `json:"scenario"`
	CalibrationStage string            `json:"calibration_stage"`
	Subsystem        string            `json:"subsystem"`
	PickStrategy     string            `json:"pick_strategy"`
	Seed             int64             `json:"seed"`
	Overrides        []OverrideRequest `json:"overrides,omitempty"`
}

func (r QueryRequest) toQuery() (paramassign.Query, error) {
	overrides, err := toOverrides(r.Overrides)
	if err != nil {
		return paramassign.Query{}, err
	}
	strategy := paramassign.PickStrategy(r.PickStrategy)
	if strategy == "" {
		strategy = paramassign.Midpoint
	}
	return paramassign.Query{
		BuildingID:       r.BuildingID,
		Function:         r.Function,
		SubType:          r.SubType,
		AgeRange:         r.AgeRange,
		Scenario:         r.Scenario,
		CalibrationStage: r.CalibrationStage,
		Subsystem:        r.Subsystem,
		PickStrategy:     strategy,
		Seed:             r.Seed,
		Overrides:        overrides,
	}, nil
}

