package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/pkg/client"
)

var (
	serverURL string

	watchCmd = &cobra.Command{
		Use:   "watch <door-id>",
		Short: "Print the events of a door as they happen",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := door.ParseID(args[0])
			if err != nil {
				return err
			}

			c, err := client.New(client.ClientOptions{URL: serverURL})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())

			err = c.Watch(ctx, id, func(event client.Event) {
				if err := enc.Encode(event); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}
)

func init() {
	watchCmd.Flags().StringVarP(&serverURL, "url", "u", "http://localhost:3000", "doorphone server url")
}
