// Package cli implements the studyloop command surface. Commands are
// package-level cobra vars registered in init(); services are injected by
// the composition root before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Nil until the composition root calls
// SetServices; each command checks the services it needs.
var (
	ingestService    driving.Ingestor
	retrieverService driving.Retriever
	assistantService driving.Assistant
	recommendService driving.Recommender
	schedulerService driving.Scheduler
	quizService      driving.QuizGenerator
	settingsService  driving.SettingsService
	contentDBPath    string
	verboseFlag      bool
)

// Services bundles everything the commands need.
type Services struct {
	Ingestor  driving.Ingestor
	Retriever driving.Retriever
	Assistant driving.Assistant
	Recommend driving.Recommender
	Scheduler driving.Scheduler
	Quiz      driving.QuizGenerator
	Settings  driving.SettingsService

	// ContentDBPath is the platform database file, watched by
	// 'index watch'.
	ContentDBPath string
}

// SetServices injects the service implementations.
func SetServices(s Services) {
	ingestService = s.Ingestor
	retrieverService = s.Retriever
	assistantService = s.Assistant
	recommendService = s.Recommend
	schedulerService = s.Scheduler
	quizService = s.Quiz
	settingsService = s.Settings
	contentDBPath = s.ContentDBPath
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "studyloop",
	Short: "Retrieval pipeline for the Studyloop learning platform",
	Long: `Studyloop keeps a vector index of published course content and serves
grounded answers, retrieval queries and content recommendations on top
of it.

Start with 'studyloop settings' to configure an embedding and LLM
provider, then 'studyloop index rebuild' to build the index.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
