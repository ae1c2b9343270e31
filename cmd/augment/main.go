package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go-image-augmentor/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          filepath.Base(os.Args[0]),
	Short:        "augment applies data augmentation techniques to image files",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.UseTextFormatter()
		logger.SetLevel(logLevelFlag)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var logLevelFlag string

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, `log-level`, `warn`, `log level (debug, info, warn, error)`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
