package main

import (
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Initialize a heap, allocate a small workload, and print its GC stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			h, mut, err := start(cfg, log)
			if err != nil {
				return err
			}
			h.PrintStartGCStats()
			if err := scenarioChurnOfTinyNodes(mut); err != nil {
				return err
			}
			h.PrintEndGCStats()
			return nil
		},
	}
}
