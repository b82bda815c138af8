// Get command for the keeper CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/console"
	"github.com/mesh-intelligence/keeper/internal/session"
)

var getCmd = &cobra.Command{
	Use:   "get <kind> <key>",
	Short: "Show one record",
	Long: `Get prints the record of the kind with the given key.

Example:
  keeper get products 12345ABCD
  keeper get clients 42 --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			rec, err := st.Find(args[1])
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			return console.WriteRecord(cmd.OutOrStdout(), st.Schema(), rec)
		})
	},
}
