package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/pkg/client"
)

var (
	pressSource string
	pressFrom   int64
	pressName   string

	pressCmd = &cobra.Command{
		Use:   "press <door-id>",
		Short: "Press a door",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := door.ParseID(args[0])
			if err != nil {
				return err
			}

			kind, err := core.ParseKind(strings.ToLower(pressSource))
			if err != nil {
				return err
			}

			options := client.PressOptions{
				Source:     client.Kind(kind),
				CustomName: pressName,
			}

			if cmd.Flags().Changed("from") {
				options.IDFrom = &pressFrom
			}

			c, err := client.New(client.ClientOptions{URL: serverURL})
			if err != nil {
				return err
			}

			if err := c.Press(cmd.Context(), id, options); err != nil {
				return err
			}

			cmd.Printf("pressed door %d (%s)\n", id, kind)

			return nil
		},
	}
)

func init() {
	pressCmd.Flags().StringVarP(&serverURL, "url", "u", "http://localhost:3000", "doorphone server url")
	pressCmd.Flags().StringVarP(&pressSource, "source", "s", string(core.KindDoor), "press kind: door, dash or record")
	pressCmd.Flags().Int64VarP(&pressFrom, "from", "f", 0, "id of the door the press comes from")
	pressCmd.Flags().StringVarP(&pressName, "name", "n", "", "custom sender name")
}
