package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fre_viewer/pkg/models"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summarize <company>",
		Short: "Summarize a company's FRE section",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummarize,
	}
	cmd.Flags().StringP("item", "i", "8.4", "Report item")
	cmd.Flags().StringP("provider", "p", "", "LLM provider override (gemini, gemini-legacy, deepseek, qwen)")
	RootCmd.AddCommand(cmd)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "enrich <company>",
		Short: "Show compensation-plan rows joined to a company",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnrich,
	})
}

func runSummarize(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	provider, _ := cmd.Flags().GetString("provider")
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	if provider != "" {
		if err := a.Agents.SetGlobalProvider(provider); err != nil {
			return cmdErr("provider", err)
		}
	}

	artifact, err := a.Pipeline.GetDocument(cmd.Context(), args[0], models.ReportItem(item))
	if err != nil {
		return cmdErr("get document", err)
	}
	s, err := a.Pipeline.Summarize(cmd.Context(), artifact)
	if err != nil {
		return cmdErr("summarize", err)
	}

	if formatFlag == "json" {
		printJSON(s)
		return nil
	}
	fmt.Printf("%s, item %s (%s)\n\n%s\n", s.Company, s.Item, s.Backend, s.Text)
	if len(s.KeyPoints) > 0 {
		fmt.Println()
		fmt.Println("- " + strings.Join(s.KeyPoints, "\n- "))
	}
	return nil
}

func runEnrich(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	rows, err := a.Pipeline.Enrichment(cmd.Context(), args[0])
	if err != nil {
		return cmdErr("enrichment", err)
	}
	if formatFlag == "json" || len(rows) == 0 {
		printJSON(rows)
		return nil
	}
	for i, row := range rows {
		if i > 0 {
			fmt.Println()
		}
		for k, v := range row.Fields {
			fmt.Printf("%s: %s\n", k, v)
		}
	}
	return nil
}
