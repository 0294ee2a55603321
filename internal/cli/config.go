package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"signal-core/internal/strategy"
	"signal-core/pkg/config"
	"signal-core/pkg/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate settings and strategies, then print them",
	Long: `Config loads the environment the same way "run" does, builds every
active strategy from the strategies file and prints the result with
secrets masked. It exits non-zero on the first problem found.`,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

type configReport struct {
	Settings   config.Config   `yaml:"settings"`
	Strategies []strategyEntry `yaml:"strategies"`
}

type strategyEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func showConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logger.New("warn", "")
	if err != nil {
		return err
	}
	defer closer.Close()

	entries, err := strategy.LoadConfig(cfg.StrategiesFile)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}
	engine := strategy.NewEngine(log)
	if err := strategy.Build(engine, entries); err != nil {
		return err
	}

	report := configReport{Settings: cfg.Masked()}
	for _, s := range engine.Strategies() {
		report.Strategies = append(report.Strategies, strategyEntry{ID: s.ID(), Name: s.Name()})
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
