package cli

import (
	"github.com/migmoroni/vaudio/internal/commands"
	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/spf13/cobra"
)

func newCommandsCommand() *cobra.Command {
	var (
		output string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List registered commands and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputTable {
				if err := validateOutput(output); err != nil {
					return err
				}
			}

			var descs []registry.Descriptor
			if remote {
				resp, err := sendToBridge(cmd.Context(), ipc.Request{Command: commands.NameCommands})
				if err != nil {
					return err
				}
				if err := resp.ParseResult(&descs); err != nil {
					return err
				}
			} else {
				reg, err := commands.Build(registerExtra)
				if err != nil {
					return err
				}
				descs = reg.Descriptors()
			}
			if output == outputTable {
				return writeCommandTable(cmd.OutOrStdout(), descs)
			}
			return writeValue(cmd.OutOrStdout(), output, descs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json, yaml or table")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the running bridge instead of the local table")

	return cmd
}
