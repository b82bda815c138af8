// Update command for the keeper CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/session"
)

var updateCmd = &cobra.Command{
	Use:   "update <kind> <key> field=value...",
	Short: "Change fields of a record",
	Long: `Update replaces the given fields of a record and validates the result.
Fields not named keep their value; an empty value clears an optional field.
The key field cannot be changed.

Example:
  keeper update tasks gym state=finished
  keeper update contacts "Ana Lopez" email=ana@example.org`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseAssignments(args[2:])
		if err != nil {
			return err
		}
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			rec, err := st.Update(args[1], raw)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s/%s\n", args[0], rec.Key)
			return nil
		})
	},
}
