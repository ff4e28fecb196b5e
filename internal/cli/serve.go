package cli

import (
	"os/signal"
	"syscall"

	"github.com/migmoroni/vaudio/internal/daemon"
	"github.com/migmoroni/vaudio/internal/env"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		socket  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge in the foreground",
		Long:  `Builds the command registry and answers invocation requests on the unix socket until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if socket == "" {
				socket = socketPath()
			}
			if !cmd.Flags().Changed("workers") {
				workers = settings.Workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d := daemon.NewDaemon(daemon.Options{
				Home:           env.Get().HomeDir,
				Socket:         socket,
				Workers:        workers,
				WriteTimeout:   settings.WriteTimeout,
				MaxMessageSize: settings.MaxMessageSize,
				Register:       registerExtra,
			})
			return d.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "Unix socket to listen on (default: <home>/bridge.sock)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Maximum handlers running at once (default: GOMAXPROCS)")

	return cmd
}
