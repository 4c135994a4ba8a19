package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/serp-brief/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "serp-brief",
	Short: "SERP competitor content analysis",
	Long:  "Analyzes ranked competitor documents for a keyword, extracts term and entity signal, detects coverage gaps, and produces a content outline with schema.org markup.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
