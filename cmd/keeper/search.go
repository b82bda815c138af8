// Search command for the keeper CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/session"
)

var searchFields []string

var searchCmd = &cobra.Command{
	Use:   "search <kind> <term>",
	Short: "Find records containing a term",
	Long: `Search prints, in insertion order, the records where any text or list
field contains the term, ignoring case. --field limits the fields searched.

Example:
  keeper search messages lunch
  keeper search contacts example.com --field email`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			recs, err := st.Search(args[1], searchFields...)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), st.Schema(), recs)
		})
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchFields, "field", nil, "field to search (repeatable)")
}
