package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"csv-reconciler/core/config"
	"csv-reconciler/core/logger"
	"csv-reconciler/core/storage"
	"csv-reconciler/feature/reconciliation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const logFileName = "csv-reconciliation.log"

var (
	fieldsFlag      []string
	modeFlag        string
	dedupeFlag      string
	parallelismFlag int
)

// runCmd reconciles two folders and writes results to an output folder.
var runCmd = &cobra.Command{
	Use:   "run [folderA folderB output]",
	Short: "Reconcile the CSV files of two folders",
	Long: `Reconcile every CSV file of folderA with the file of the same name in folderB.

Folders may be given as arguments or through the config file
(reconcile.folder_a, reconcile.folder_b, reconcile.output).

Examples:
  # Match on Id using a config file for the rest
  csv-reconciler run -c reconcile.yaml ./a ./b ./out --fields Id

  # Composite key, bulk mode
  csv-reconciler run ./a ./b ./out --fields FirstName,LastName --mode bulk`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected folderA folderB output, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: runReconcile,
}

func init() {
	runCmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil, "Matching fields, in key order")
	runCmd.Flags().StringVar(&modeFlag, "mode", "", "Categorization mode: streaming or bulk")
	runCmd.Flags().StringVar(&dedupeFlag, "dedupe", "", "Duplicate keys in folder B: last, first or reject")
	runCmd.Flags().IntVar(&parallelismFlag, "parallelism", 0, "File pairs processed at once (default: CPU count)")

	RootCmd.AddCommand(runCmd)
}

func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(".", configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rc := &cfg.Reconcile
	switch len(args) {
	case 3:
		rc.Output = args[2]
		fallthrough
	case 2:
		rc.FolderA, rc.FolderB = args[0], args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("fields") {
		rc.MatchingFields = fieldsFlag
	}
	if flags.Changed("mode") {
		rc.Mode = modeFlag
	}
	if flags.Changed("dedupe") {
		rc.Dedupe = dedupeFlag
	}
	if flags.Changed("parallelism") {
		rc.Parallelism = parallelismFlag
	}
	return cfg, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The log file lives in the output folder, so it must exist first.
	if err := os.MkdirAll(cfg.Reconcile.Output, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Reconcile.Output, logFileName)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	var client storage.Client
	if cfg.Storage.Enabled {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	service := reconciliation.NewService(cfg.Reconcile, client, cfg.Storage, l)
	result, err := service.Run(cmd.Context())
	if err != nil {
		return err
	}

	if result.FailedPairs > 0 {
		return fmt.Errorf("%d file pair(s) failed, see %s", result.FailedPairs, cfg.Log.File)
	}
	l.Info("Done", zap.String("summary", result.SummaryJSONPath))
	return nil
}
