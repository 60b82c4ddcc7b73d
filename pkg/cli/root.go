// Package cli implements the fre command-line client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"fre_viewer/pkg/core/app"
	"fre_viewer/pkg/core/config"
	"fre_viewer/pkg/core/pipeline"
)

var (
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "fre",
	Short: "Browse CVM Formulário de Referência filings",
	Long: "Look up Brazilian listed companies in the CVM open-data catalog and download or\n" +
		"summarize sections of their latest Formulário de Referência (FRE).",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $FRE_CONFIG or config/fre.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}


func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// cmdErr tags err with the failing step and its outcome reason. Commands return it
// instead of exiting so deferred cleanup runs.
func cmdErr(msg string, err error) error {
	return fmt.Errorf("%s: %w (%s)", msg, err, pipeline.Outcome(err))
}
