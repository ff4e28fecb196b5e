package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/logger"
	"github.com/spf13/cobra"
)

func newInvokeCommand() *cobra.Command {
	var (
		argsJSON string
		token    string
		output   string
		envelope bool
	)

	cmd := &cobra.Command{
		Use:   "invoke <command>",
		Short: "Send one invocation to the running bridge",
		Example: `  vaudio-bridge invoke greet --args '{"name":"Ana"}'
  vaudio-bridge invoke greet --args '["Ana"]' --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			req := ipc.Request{Command: args[0], Token: token}
			if argsJSON != "" {
				if !json.Valid([]byte(argsJSON)) {
					return errors.New("--args is not valid JSON")
				}
				req.Args = json.RawMessage(argsJSON)
			}

			resp, err := sendToBridge(cmd.Context(), req)
			if err != nil {
				if errors.Is(err, ErrBridgeUnavailable) {
					return fmt.Errorf("%w: is `vaudio-bridge serve` running?", err)
				}
				return err
			}
			logger.Debug("invoke answered", "command", req.Command, "token", resp.Token, "ok", resp.OK)

			out := cmd.OutOrStdout()
			if envelope {
				data, err := json.Marshal(resp)
				if err != nil {
					return err
				}
				if err := writeRaw(out, output, data); err != nil {
					return err
				}
				return resp.Err()
			}
			if err := resp.Err(); err != nil {
				return err
			}
			return writeRaw(out, output, resp.Result)
		},
	}

	cmd.Flags().StringVarP(&argsJSON, "args", "a", "", "Arguments as a JSON object or array")
	cmd.Flags().StringVar(&token, "token", "", "Correlation token (default: random)")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "Print the whole response envelope")

	return cmd
}
