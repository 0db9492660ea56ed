package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "inspector",
	Short:        "inspector - image and video feature extraction",
	Long:         "Extracts color, brightness, edge, sharpness, and motion features from images and videos.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so progress and results stay on stdout
		logger.SetOutput(os.Stderr)
		logger.UseTextFormat()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger.SetLevel(level)

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./inspector.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(configCmd)
}
