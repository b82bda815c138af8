// Add command for the keeper CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/session"
)

var addCmd = &cobra.Command{
	Use:   "add <kind> field=value...",
	Short: "Add a validated record",
	Long: `Add validates the given fields against the schema of the kind and stores
the new record. Omitted fields take their default. List fields take
comma-separated values.

Example:
  keeper add products code=12345ABCD name=Widget quantity=3
  keeper add vehicles plate=1234ABC brand=Seat model=Ibiza year=2015
  keeper add pastries name=croissant price=1.25 ingredients=flour,butter`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			rec, err := st.Create(raw)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s/%s\n", args[0], rec.Key)
			return nil
		})
	},
}
