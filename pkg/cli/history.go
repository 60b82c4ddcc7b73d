package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [company]",
		Short: "Show recent document requests (needs DATABASE_URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum entries")
	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	company := ""
	if len(args) == 1 {
		company = args[0]
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	reqs, err := a.Pipeline.RecentRequests(cmd.Context(), company, limit)
	if err != nil {
		return cmdErr("history", err)
	}
	if formatFlag == "json" {
		printJSON(reqs)
		return nil
	}
	for _, r := range reqs {
		fmt.Printf("%s  %-16s %-5s %-18s %s\n", r.RequestedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Item, r.SequentialID, r.Company)
	}
	return nil
}
