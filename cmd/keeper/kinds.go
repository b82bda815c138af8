// Kinds command for the keeper CLI.
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/console"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds [kind]",
	Short: "List the available kinds or describe one",
	Long: `Kinds lists every kind keeper can store. Given a kind, it prints the
fields of that kind with their types, defaults and rules.

Example:
  keeper kinds
  keeper kinds vehicles`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			schema, err := cat.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, strings.Join(cat.Kinds(), ", "))
			}
			if flagJSON {
				return writeJSON(out, describe(schema))
			}
			return console.WriteSchema(out, schema)
		}

		var schemas []types.Schema
		for _, kind := range cat.Kinds() {
			schema, err := cat.Get(kind)
			if err != nil {
				return err
			}
			schemas = append(schemas, schema)
		}
		if flagJSON {
			descs := make([]kindJSON, 0, len(schemas))
			for _, s := range schemas {
				descs = append(descs, describe(s))
			}
			return writeJSON(out, descs)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tKEY\tDESCRIPTION")
		fmt.Fprintln(w, "----\t---\t-----------")
		for _, s := range schemas {
			key := s.Key
			if s.GeneratedKey {
				key = "(generated)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Kind, key, s.Description)
		}
		return w.Flush()
	},
}

// kindJSON is the JSON description of a kind.
type kindJSON struct {
	Kind         string      `json:"kind"`
	Description  string      `json:"description,omitempty"`
	Key          string      `json:"key,omitempty"`
	GeneratedKey bool        `json:"generated_key,omitempty"`
	OrderBy      string      `json:"order_by,omitempty"`
	Fields       []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Default  string   `json:"default,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Rules    []string `json:"rules,omitempty"`
}

func describe(s types.Schema) kindJSON {
	k := kindJSON{
		Kind:         s.Kind,
		Description:  s.Description,
		Key:          s.Key,
		GeneratedKey: s.GeneratedKey,
		OrderBy:      s.OrderBy,
	}
	for _, f := range s.Fields {
		fj := fieldJSON{Name: f.Name, Type: string(f.Type), Required: f.Required, Default: f.Default, Ref: f.Ref}
		for _, r := range f.Rules {
			fj.Rules = append(fj.Rules, r.Name())
		}
		k.Fields = append(k.Fields, fj)
	}
	return k
}
