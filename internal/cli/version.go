package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pubcheck/internal/rules"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and the compiled-in rule order",
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, date := BuildInfo()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "pubcheck %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		fmt.Fprintf(w, "rules:  %s\n", strings.Join(rules.Order, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
