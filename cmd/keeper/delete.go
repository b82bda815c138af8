// Delete command for the keeper CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/session"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <key>",
	Short: "Remove a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			if err := st.Remove(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], args[1])
			return nil
		})
	},
}
