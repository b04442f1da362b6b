package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		if structuredOutputRequested() {
			return printStructured(ctx, map[string]string{
				"version": version,
				"commit":  commit,
				"date":    date,
			})
		}
		_, err := fmt.Fprintln(stdoutFromContext(ctx), versionLine())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
