package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gitreport.",
	Long: `Display the release version, commit, build time and Go runtime.

Include this output when reporting bugs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(w, "gitreport CLI")
		_, _ = fmt.Fprintf(w, "  Version:  %s\n", version)
		_, _ = fmt.Fprintf(w, "  Commit:   %s\n", commit)
		_, _ = fmt.Fprintf(w, "  Built:    %s\n", date)
		_, _ = fmt.Fprintf(w, "  Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
