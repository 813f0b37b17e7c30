package cmd

import (
	"fmt"

	"csv-reconciler/feature/reconciliation"

	"github.com/spf13/cobra"
)

// pairsCmd lists the file pairs a run would process.
var pairsCmd = &cobra.Command{
	Use:   "pairs [folderA folderB]",
	Short: "List the file pairs found in two folders",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected folderA folderB, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		pairs, err := reconciliation.NewService(cfg.Reconcile, nil, cfg.Storage, nil).Pairs()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range pairs {
			status := "ok"
			switch {
			case p.PathA == "":
				status = "missing in folderA"
			case p.PathB == "":
				status = "missing in folderB"
			}
			fmt.Fprintf(out, "%-40s %s\n", p.Name, status)
		}
		fmt.Fprintf(out, "%d pair(s)\n", len(pairs))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pairsCmd)
}
