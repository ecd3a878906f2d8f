package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/simrun"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Dispatch engine runs across a bounded worker pool",
	Long:  `Runs one engine invocation per (building, variant) job against a bounded worker pool, persisting status to a run store and never retrying failures (spec.md §4.6).`,
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().String("jobs", "", "JSON file of simulation job requests (required)")
	simulateCmd.Flags().String("run-store", "", "leveldb run store path (default: config simulation.run_store_dir)")
	simulateCmd.Flags().Int("workers", 0, "worker pool size (default: config simulation.worker_count)")
	simulateCmd.Flags().String("out", "", "output JSON summary of job results (required)")
	simulateCmd.MarkFlagRequired("jobs")
	simulateCmd.MarkFlagRequired("out")
}

type simJobRequest struct {
	BuildingID   string `json:"building_id"`
	VariantID    int    `json:"variant_id"`
	EnginePath   string `json:"engine_path"`
	DeckPath     string `json:"deck_path"`
	WorkDir      string `json:"work_dir"`
	ResultFile   string `json:"result_file"`
	TimeoutSecs  int    `json:"timeout_seconds"`
}

type simJobResult struct {
	BuildingID string `json:"building_id"`
	VariantID  int    `json:"variant_id"`
	Status     string `json:"status"`
	ResultFile string `json:"result_file"`
	Stderr     string `json:"stderr,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	jobsPath, _ := cmd.Flags().GetString("jobs")
	runStorePath, _ := cmd.Flags().GetString("run-store")
	workers, _ := cmd.Flags().GetInt("workers")
	outPath, _ := cmd.Flags().GetString("out")

	if workers <= 0 {
		workers = cfg.Simulation.WorkerCount
	}
	if runStorePath == "" {
		runStorePath = cfg.Simulation.RunStoreDir
	}

	requests, err := loadJSON[[]simJobRequest](jobsPath)
	if err != nil {
		return err
	}

	store, err := simrun.OpenRunStore(runStorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs := make([]*simrun.SimJob, len(requests))
	for i, r := range requests {
		timeout := time.Duration(r.TimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = time.Hour
		}
		jobs[i] = simrun.NewSimJob(r.BuildingID, r.VariantID, r.EnginePath, r.DeckPath, r.WorkDir, r.ResultFile, timeout)
	}

	dispatcher := simrun.NewDispatcher(workers, store, logger)
	done := dispatcher.RunAll(context.Background(), jobs)

	out := make([]simJobResult, len(done))
	for i, j := range done {
		out[i] = simJobResult{
			BuildingID: j.BuildingID, VariantID: j.VariantID, Status: string(j.Status),
			ResultFile: j.ResultFile, Stderr: j.Stderr,
		}
	}

	logger.Info("simulate: ran jobs", map[string]any{"count": len(out), "workers": workers})
	return writeJSON(outPath, out)
}
