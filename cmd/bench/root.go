package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tidalgc/taggc/internal/config"
)

var (
	cfgFile      string
	variantFlag  string
	heapSizeFlag uint64
	workersFlag  int
	logLevelFlag string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bench",
		Short: "Drive the tagged-heap collectors through allocation workloads",
		Long: "bench is the external benchmark/driver program for the three " +
			"collector variants (marksweep, marksweeplegacy, semispace): it " +
			"picks one at startup and exercises it through its own public API.",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file name (without extension)")
	root.PersistentFlags().StringVar(&variantFlag, "variant", "", "collector variant: marksweep, marksweeplegacy, or semispace")
	root.PersistentFlags().Uint64Var(&heapSizeFlag, "heap-size", 0, "heap size in bytes (one half for semispace)")
	root.PersistentFlags().IntVar(&workersFlag, "workers", -1, "parallel tracing workers (marksweep/marksweeplegacy only)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "logrus level: debug, info, warn, error")

	root.AddCommand(newScenariosCmd())
	root.AddCommand(newStatsCmd())
	return root
}

func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if variantFlag != "" {
		cfg.Variant = config.Variant(variantFlag)
	}
	if heapSizeFlag != 0 {
		cfg.HeapSize = heapSizeFlag
	}
	if workersFlag >= 0 {
		cfg.ParallelWorkers = workersFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	log.SetLevel(level)
	return cfg, log, nil
}
