package cli

import (
	"fmt"

	"github.com/migmoroni/vaudio/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 不需要任何环境检查
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Current()
			if output == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}
			if err := validateOutput(output); err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), output, info)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: json or yaml (default: one line)")
	return cmd
}
