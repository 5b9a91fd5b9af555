package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tidalgc/taggc/internal/config"
)

func newScenariosCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Run the end-to-end scenarios against the configured variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			return runScenarios(cfg, log, only)
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "run a single scenario by name")
	return cmd
}

func runScenarios(cfg config.Config, log *logrus.Logger, only string) error {
	ran := 0
	for _, s := range scenarios {
		if only != "" && s.name != only {
			continue
		}
		h, mut, err := start(cfg, log)
		if err != nil {
			return errors.Wrapf(err, "starting heap for %s", s)
		}
		if err := s.run(mut); err != nil {
			return errors.Wrapf(err, "%s failed", s)
		}
		log.WithField("scenario", s.name).Info("passed")
		h.PrintEndGCStats()
		ran++
	}
	if only != "" && ran == 0 {
		return errors.Errorf("no scenario named %q", only)
	}
	return nil
}
