// Adjust command for the keeper CLI.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/session"
	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust <kind> <key> <field> <delta>",
	Short: "Add to or subtract from a numeric field",
	Long: `Adjust adds delta (which may be negative) to a numeric field of a record.
The result must still satisfy the field's rules.

Example:
  keeper adjust vehicles 1234ABC speed 20
  keeper adjust products 12345ABCD quantity -- -2`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[3], types.ErrInvalidField)
		}
		return withSession(func(sess *session.Session) error {
			st, err := openStore(sess, args[0])
			if err != nil {
				return err
			}
			rec, err := st.Adjust(args[1], args[2], delta)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			f, _ := st.Schema().Field(args[2])
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s = %s\n", args[0], rec.Key, args[2], validate.Format(f.Type, rec.Fields[args[2]]))
			return nil
		})
	},
}
