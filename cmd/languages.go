package cmd

import (
	"fmt"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/langs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// maxPathWidth bounds the path column of the classification table.
const maxPathWidth = 60

// languagesCmd prints the built-in classification table.
var languagesCmd = &cobra.Command{
	Use:   "languages [path...]",
	Short: "List the file names and extensions recognized as languages",
	Long: `Print the built-in table that maps file names and extensions to languages.

Paths that match no entry are looked up in the linguist index, and anything
still unknown is counted as "Unknown". Pass paths to classify them instead.

No Git analysis is performed - this is purely informational.

Examples:
  # Show the classification table
  gitreport languages

  # Classify a few paths
  gitreport languages cmd/main.go web/index.tsx Dockerfile`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		var data [][]string
		if len(args) > 0 {
			table.Header([]string{"Path", "Language", "Vendored"})
			for _, path := range args {
				data = append(data, []string{contract.TruncatePath(path, maxPathWidth), string(langs.Classify(path)), fmt.Sprint(langs.IsVendored(path))})
			}
		} else {
			table.Header([]string{"Pattern", "Kind", "Language"})
			for _, e := range langs.Table() {
				data = append(data, []string{e.Pattern, e.Kind, string(e.Language)})
			}
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	},
}
