package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fre_viewer/pkg/models"
)

func init() {
	urlCmd := &cobra.Command{
		Use:   "url <company>",
		Short: "Print the portal URL of a company's FRE section",
		Args:  cobra.ExactArgs(1),
		RunE:  runURL,
	}
	urlCmd.Flags().StringP("item", "i", "8.4", "Report item")
	RootCmd.AddCommand(urlCmd)

	getCmd := &cobra.Command{
		Use:   "get <company>",
		Short: "Download a company's FRE section as PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runGetDocument,
	}
	getCmd.Flags().StringP("item", "i", "8.4", "Report item")
	getCmd.Flags().StringP("output", "o", "", "Output file or directory (default: derived file name in the current directory)")
	RootCmd.AddCommand(getCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	variant, rec, err := a.Pipeline.ResolveVariant(cmd.Context(), args[0], models.ReportItem(item))
	if err != nil {
		return cmdErr("resolve", err)
	}
	if formatFlag == "json" {
		printJSON(map[string]interface{}{"variant": variant, "record": rec})
		return nil
	}
	fmt.Println(variant.URL)
	return nil
}

func runGetDocument(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	output, _ := cmd.Flags().GetString("output")
	a, err := openApp(cmd.Context())
	if err != nil {
		return cmdErr("init", err)
	}
	defer a.Close()

	artifact, err := a.Pipeline.GetDocument(cmd.Context(), args[0], models.ReportItem(item))
	if err != nil {
		return cmdErr("get document", err)
	}

	path := outputPath(output, artifact.Filename)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return cmdErr("write", err)
	}
	if formatFlag == "json" {
		printJSON(map[string]interface{}{"file": path, "bytes": artifact.Size(), "url": artifact.Variant.URL})
		return nil
	}
	fmt.Printf("%s (%d bytes)\n", path, artifact.Size())
	return nil
}

// outputPath resolves -o: empty means the derived name, a directory gets the derived
// name inside it, anything else is used as is.
func outputPath(output, filename string) string {
	if output == "" {
		return filename
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, filename)
	}
	return output
}
