// Stats command for the keeper CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/console"
	"github.com/mesh-intelligence/keeper/internal/session"
)

var statsCmd = &cobra.Command{
	Use:   "stats <kind> <field>",
	Short: "Summarize a numeric field",
	Long: `Stats prints the count, minimum, maximum, sum and mean of a numeric
field over all records that have a value for it.

Example:
  keeper stats readings temperature
  keeper stats vehicles speed --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			sum, err := st.Stats(args[1])
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			return console.WriteSummary(cmd.OutOrStdout(), sum)
		})
	},
}
