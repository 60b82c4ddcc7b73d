package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "List companies in the catalog",
		RunE:  runCompanies,
	}
	cmd.Flags().StringP("query", "q", "", "Only companies whose name contains this text")
	RootCmd.AddCommand(cmd)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "items",
		Short: "List the report items that can be requested",
		RunE:  runItems,
	})
}

func runCompanies(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	companies, err := a.Pipeline.ListCompanies(cmd.Context())
	if err != nil {
		return cmdErr("load catalog", err)
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	var out []string
	for _, c := range companies {
		if q == "" || strings.Contains(c, q) {
			out = append(out, c)
		}
	}

	if formatFlag == "json" {
		printJSON(out)
		return nil
	}
	for _, c := range out {
		fmt.Println(c)
	}
	return nil
}

func runItems(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	items := a.Pipeline.Items()
	if formatFlag == "json" {
		printJSON(items)
		return nil
	}
	table := a.Config.Portal.Sections
	for _, it := range items {
		code, _ := table.SectionFor(it)
		fmt.Printf("%s\t(section %s)\n", it, code)
	}
	return nil
}
