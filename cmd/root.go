package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/silencecut/silencecut/internal/config"
	"github.com/silencecut/silencecut/internal/logging"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "silencecut",
	Short: "Cut the silent passages out of talking-head footage",
	Long: `Silencecut runs ffmpeg silencedetect over a recording, inverts the
detected silences into a plan of keep segments and writes the result as
an FCP7 XML or CMX EDL timeline that a video editor opens with all the
silent gaps already removed.`,
	Version: config.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env next to the binary is convenient for tool paths.
		godotenv.Load()
		setupLogging()
	},
	SilenceUsage: true,
}

func setupLogging() {
	level := "info"
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	slog.SetDefault(logging.NewLogger(level, "text"))
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
