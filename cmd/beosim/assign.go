package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/archetype"
	"github.com/bldgsim/beosim/paramassign"
	"github.com/bldgsim/beosim/registry"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Resolve subsystem parameter values from the archetype store",
	Long:  `Loads an archetype lookup tree and parameter registry, resolves one or more subsystem queries against them, and writes each ResolvedSubsystem as JSON.`,
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().String("archetype", "", "archetype lookup JSON tree (required)")
	assignCmd.Flags().String("registry", "", "parameter registry JSON catalog (default: built-in)")
	assignCmd.Flags().String("queries", "", "JSON file of query requests (required)")
	assignCmd.Flags().String("out", "", "output JSON file of resolved subsystems (required)")
	assignCmd.MarkFlagRequired("archetype")
	assignCmd.MarkFlagRequired("queries")
	assignCmd.MarkFlagRequired("out")
}

func runAssign(cmd *cobra.Command, args []string) error {
	archetypePath, _ := cmd.Flags().GetString("archetype")
	registryPath, _ := cmd.Flags().GetString("registry")
	queriesPath, _ := cmd.Flags().GetString("queries")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := archetype.Load(archetypePath, logger)
	if err != nil {
		return err
	}

	reg := registry.Default()
	if registryPath != "" {
		reg, err = registry.Load(registryPath)
		if err != nil {
			return err
		}
	}

	requests, err := loadJSON[[]QueryRequest](queriesPath)
	if err != nil {
		return err
	}

	assigner := paramassign.New(store, reg, logger)

	resolved := make(map[string]*paramassign.ResolvedSubsystem, len(requests))
	for i, req := range requests {
		q, err := req.toQuery()
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		r, err := assigner.Resolve(q)
		if err != nil {
			return fmt.Errorf("query %d (%s/%s): %w", i, req.BuildingID, req.Subsystem, err)
		}
		resolved[req.Subsystem] = r
	}

	logger.Info("assign: resolved subsystems", map[string]any{"count": len(resolved), "out": outPath})
	return writeJSON(outPath, resolved)
}
