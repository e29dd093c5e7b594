package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"imagecert/config"
	"imagecert/database"
	"imagecert/evaluation"
	"imagecert/logging"
	"imagecert/report"
	"imagecert/scanner"
	"imagecert/signalhandler"
	"imagecert/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables providing flag defaults, optionally from a .env file
const (
	envRepository = "IMAGECERT_REPOSITORY"
	envOutput     = "IMAGECERT_OUTPUT"
	envConfig     = "IMAGECERT_CONFIG"
	envHistory    = "IMAGECERT_HISTORY"
)

func main() {
	// a missing .env file is not an error
	_ = godotenv.Load()

	var debugMode bool
	var logPath string

	rootCmd := &cobra.Command{
		Use:           "imagecert",
		Short:         "Certify rendered screenshots against reference images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !debugMode {
				return
			}
			if err := logging.SetupLogger(logPath); err != nil {
				fmt.Printf("Warning: Failed to setup logging: %v\n", err)
			} else {
				fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode (logs detailed information)")
	rootCmd.PersistentFlags().StringVar(&logPath, "logfile", utils.DefaultLogFile, "Log file path used in debug mode")

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	err := rootCmd.Execute()
	logging.CloseLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newEvaluateCmd() *cobra.Command {
	var (
		repository      string
		name            string
		outDir          string
		configPath      string
		historyPath     string
		metadata        bool
		modelsDir       string
		referencePrefix string
		candidatePrefix string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <submission-dir>",
		Short: "Compare a submission against the reference repository",
		Long: `Pair every models/**/rr-<name>.png reference with <submission-dir>/c-<name>.png,
compute the configured image quality metrics, apply the thresholds and print a
table. With --out the measured images, difference images, threshold masks,
contact sheets and report.json, report.pdf, report.xlsx, report.md and report.html
are written there.

Failed verdicts do not change the exit status; only usage, configuration and
I/O errors do.

Example: imagecert evaluate ./screenshots --rep ./certification --out ./results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadMetricSet(configPath)
			if err != nil {
				return err
			}

			var db *sql.DB
			if historyPath != "" {
				db, err = database.InitDatabase(historyPath)
				if err != nil {
					return fmt.Errorf("cannot open history database %s: %w", historyPath, err)
				}
				defer db.Close()
			}

			stop := signalhandler.SetupHandler(func() {
				if db != nil {
					db.Close()
				}
				logging.CloseLogger()
			})
			defer stop()

			opts := evaluation.Options{
				Match: scanner.MatchOptions{
					RepositoryRoot:  repository,
					ModelsDir:       modelsDir,
					SubmissionDir:   args[0],
					ReferencePrefix: referencePrefix,
					CandidatePrefix: candidatePrefix,
				},
				Submission: name,
				OutputDir:  outDir,
				Metrics:    set,
				ConfigPath: configPath,
				Metadata:   metadata,
				History:    db,
				Progress:   os.Stdout,
			}

			startTime := time.Now()
			rep, err := evaluation.Run(opts)
			if rep != nil {
				fmt.Println()
				if perr := report.PrintTable(os.Stdout, rep); perr != nil {
					return perr
				}
				for _, path := range rep.Unmatched {
					fmt.Printf("  no candidate for %s\n", utils.RelPath(repository, path))
				}
			}
			if err != nil {
				return err
			}

			fmt.Printf("\nTotal execution time: %v\n", time.Since(startTime).Round(time.Millisecond))
			if outDir != "" {
				fmt.Printf("Report: %s\n", outDir)
			}
			if db != nil {
				fmt.Printf("Run %s recorded in %s\n", rep.RunID, historyPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "rep", utils.EnvOr(envRepository, "."), "Certification repository root containing the models directory")
	cmd.Flags().StringVar(&name, "name", "", "Submission name used in reports (default: submission directory name)")
	cmd.Flags().StringVar(&outDir, "out", utils.EnvOr(envOutput, ""), "Output directory for images and reports")
	cmd.Flags().StringVar(&configPath, "config", utils.EnvOr(envConfig, ""), "Metric configuration YAML (default: built-in)")
	cmd.Flags().StringVar(&historyPath, "history", utils.EnvOr(envHistory, ""), "SQLite database recording run history")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "Include reference metadata read with exiftool")
	cmd.Flags().StringVar(&modelsDir, "models-dir", scanner.DefaultModelsDir, "Models directory below the repository root")
	cmd.Flags().StringVar(&referencePrefix, "ref-prefix", scanner.DefaultReferencePrefix, "Reference filename prefix")
	cmd.Flags().StringVar(&candidatePrefix, "cand-prefix", scanner.DefaultCandidatePrefix, "Candidate filename prefix")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		historyPath string
		name        string
		limit       int
		runID       string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded certification runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(historyPath); err != nil {
				return fmt.Errorf("history database does not exist: %s", historyPath)
			}
			db, err := database.OpenDatabase(historyPath)
			if err != nil {
				return fmt.Errorf("error opening database: %w", err)
			}
			defer db.Close()

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if runID != "" {
				metrics, err := database.GetRunMetrics(db, runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "CASE\tMETRIC\tVALUE\tRESULT")
				for _, m := range metrics {
					result := ""
					if m.Passed != nil {
						result = report.LabelPassed
						if !*m.Passed {
							result = report.LabelFailed
						}
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.CaseName, m.Metric, m.Value, result)
				}
				return tw.Flush()
			}

			runs, err := database.ListRuns(db, name, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			fmt.Fprintln(tw, "RUN\tSUBMISSION\tGENERATED\tTOTAL\tPASSED\tFAILED\tERRORED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n", r.ID, r.Submission,
					r.GeneratedAt.Local().Format("2006-01-02 15:04:05"), r.Total, r.Passed, r.Failed, r.Errored)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", utils.EnvOr(envHistory, utils.GetDefaultDatabasePath()), "SQLite history database")
	cmd.Flags().StringVar(&name, "name", "", "Only list runs of this submission")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the metric values of one run")

	return cmd
}

func newConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective metric configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadMetricSet(configPath)
			if err != nil {
				return err
			}
			data, err := set.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", utils.EnvOr(envConfig, ""), "Metric configuration YAML (default: built-in)")
	return cmd
}

func loadMetricSet(path string) (config.MetricSet, error) {
	if path == "" {
		return config.Default(), nil
	}
	set, err := config.Load(path)
	if err != nil {
		return config.MetricSet{}, err
	}
	logging.DebugLog("Loaded metric configuration from %s", path)
	return set, nil
}
