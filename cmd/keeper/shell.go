// Shell command for the keeper CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/console"
	"github.com/mesh-intelligence/keeper/internal/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell <kind>",
	Short: "Manage records of a kind through an interactive menu",
	Long: `Shell opens a numbered menu to add, list, find, update, remove, search
and summarize records of one kind. Changes are saved on exit, on end of
input, or on demand with the save option.

Example:
  keeper shell tasks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			if _, err := openStore(sess, args[0]); err != nil {
				return err
			}
			c, err := console.New(sess, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return c.Run()
		})
	},
}
