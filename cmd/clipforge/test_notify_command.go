package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/daemon"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDaemon(func(d *daemon.Daemon) error {
				sent, detail, err := d.TestNotification(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						Sent   bool   `json:"sent"`
						Detail string `json:"detail,omitempty"`
					}{Sent: sent, Detail: detail})
				}
				out := cmd.OutOrStdout()
				if sent {
					fmt.Fprintln(out, "Test notification sent")
				} else {
					fmt.Fprintln(out, "Test notification not sent")
				}
				if detail != "" {
					fmt.Fprintln(out, detail)
				}
				return nil
			})
		},
	}
}
