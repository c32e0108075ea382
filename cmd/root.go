package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "renewal",
	Short: "Agreement expiry reminder pipeline",
	Long:  "Downloads the agreements workbook, detects its schema, classifies each agreement by days until expiry and emails the stakeholders that have not been reminded yet.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.SMTP.Sender == "" {
			zap.L().Warn("smtp sender is not set; notifications will fail to send")
		}
		if cfg.SMTP.Password == "" {
			zap.L().Warn("smtp password is not set; notifications will fail to send")
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
