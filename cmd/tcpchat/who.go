package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	transporthttp "github.com/vovakirdan/tcpchat/internal/transport/http"
)

func newWhoCmd() *cobra.Command {
	var (
		adminAddr string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "who",
		Short: "List live connections through the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			list, err := fetchConnections(ctx, http.DefaultClient, adminAddr)
			if err != nil {
				return err
			}
			renderConnections(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().StringVar(&adminAddr, "admin-addr", "127.0.0.1:8081", "admin HTTP address of the server")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func fetchConnections(ctx context.Context, client *http.Client, adminAddr string) (transporthttp.ListConnectionsResponse, error) {
	var list transporthttp.ListConnectionsResponse

	base := adminAddr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/api/connections", nil)
	if err != nil {
		return list, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return list, fmt.Errorf("query admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr transporthttp.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return list, fmt.Errorf("admin api returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return list, fmt.Errorf("decode response: %w", err)
	}
	return list, nil
}

func renderConnections(w io.Writer, list transporthttp.ListConnectionsResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Nickname", "Remote Addr", "Connected At", "ID"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, conn := range list.Connections {
		nick := conn.Nickname
		if !conn.Registered {
			nick = "-"
		}
		table.Append([]string{nick, conn.RemoteAddr, conn.ConnectedAt, conn.ID})
	}
	table.Render()

	fmt.Fprintf(w, "%d connected, %d registered\n", list.Total, list.Registered)
}
