package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tcpchat/internal/client"
)

func newClientCmd() *cobra.Command {
	var addr, nick string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Connect to a chat server from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return client.Run(ctx, addr, nick, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:12345", "server address")
	cmd.Flags().StringVarP(&nick, "nick", "n", "", "nickname to register on connect")
	return cmd
}
