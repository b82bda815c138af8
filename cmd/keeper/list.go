// List command for the keeper CLI.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/console"
	"github.com/mesh-intelligence/keeper/internal/session"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

var (
	listOrderBy string
	listDesc    bool
	listLimit   int
	listWhere   []string
)

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List records",
	Long: `List prints the records of a kind, ordered by the kind's default order
unless --order-by is given ("key" orders by key, an empty value keeps
insertion order). --where keeps records whose field equals the value; text
compares without case and a list matches when any item does. Repeated
--where flags must all match.

Example:
  keeper list products
  keeper list vehicles --where brand=seat --order-by year --desc
  keeper list tasks --where state=active --limit 5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := types.Filter{}
		for _, w := range listWhere {
			raw, err := parseAssignments([]string{w})
			if err != nil {
				return err
			}
			for k, v := range raw {
				filter[k] = v
			}
		}
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			opts := types.ListOptions{OrderBy: st.Schema().OrderBy, Descending: listDesc, Limit: listLimit}
			if cmd.Flags().Changed("order-by") {
				opts.OrderBy = listOrderBy
			}
			recs, err := st.Fetch(filter, opts)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), st.Schema(), recs)
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listOrderBy, "order-by", "", "field to order by, or \"key\"")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "reverse the order")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of records (0 means all)")
	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "field=value filter (repeatable)")
}

// writeRecords prints records as a table, or as a JSON array with --json.
func writeRecords(w io.Writer, schema types.Schema, recs []types.Record) error {
	if flagJSON {
		if recs == nil {
			recs = []types.Record{}
		}
		return writeJSON(w, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No records")
		return nil
	}
	return console.WriteTable(w, schema, recs)
}
