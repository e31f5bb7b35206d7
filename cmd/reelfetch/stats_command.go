package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelfetch/internal/ledger"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show download usage from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stats, err := ledger.Read(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger:    %s\n", cfg.Paths.LedgerPath)
			fmt.Fprintf(out, "Downloads: %d\n", stats.Downloads)
			fmt.Fprintf(out, "Users:     %d\n", len(stats.Users))
			if stats.Downloads == 0 {
				fmt.Fprintln(out, "No downloads recorded yet")
				return nil
			}

			fmt.Fprintln(out, renderTable("Platforms", []string{"Platform", "Downloads"},
				countRows(stats.ByPlatform()), []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(out, renderTable(fmt.Sprintf("Top %d users", top), []string{"User", "Downloads"},
				countRows(stats.TopUsers(top)), []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of users to list")
	return cmd
}

func countRows(counts []ledger.Count) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Total)})
	}
	return rows
}
