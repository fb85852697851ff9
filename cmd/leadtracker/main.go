package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/osr-alliance/backend-lead-tracker/internal/config"
)

var (
	envFiles []string
	cfg      *config.Config
	logger   *logrus.Logger

	rootCmd = &cobra.Command{
		Use:           "leadtracker",
		Short:         "Track sales leads, their status history and spreadsheet imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			cfg = c
			logger = c.Logger()
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "env files to load before reading the environment; missing files are skipped")

	rootCmd.AddCommand(serveCmd, importCmd, exportCmd, templateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("leadtracker failed")
		os.Exit(1)
	}
}
