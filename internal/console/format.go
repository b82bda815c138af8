package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// maxCell truncates long values in tables.
const maxCell = 40

// WriteTable prints records as an aligned table with one column per field.
// Kinds with generated keys get a leading KEY column.
func WriteTable(w io.Writer, schema types.Schema, records []types.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	var head, rule []string
	if schema.GeneratedKey {
		head = append(head, "KEY")
		rule = append(rule, "---")
	}
	for _, f := range schema.Fields {
		head = append(head, strings.ToUpper(f.Name))
		rule = append(rule, strings.Repeat("-", len(f.Name)))
	}
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, rec := range records {
		var row []string
		if schema.GeneratedKey {
			row = append(row, rec.Key)
		}
		for _, f := range schema.Fields {
			row = append(row, truncate(validate.Format(f.Type, rec.Fields[f.Name])))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// WriteRecord prints one record as a list of labelled fields.
func WriteRecord(w io.Writer, schema types.Schema, rec types.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "key:\t%s\n", rec.Key)
	for _, f := range schema.Fields {
		value := validate.Format(f.Type, rec.Fields[f.Name])
		if f.Description != "" && value != "" {
			value += " " + f.Description
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f.Name, value)
	}
	fmt.Fprintf(tw, "created:\t%s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "updated:\t%s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	return tw.Flush()
}

// WriteSummary prints the statistics of a numeric field.
func WriteSummary(w io.Writer, sum types.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "field:\t%s\n", sum.Field)
	fmt.Fprintf(tw, "count:\t%d\n", sum.Count)
	if sum.Count > 0 {
		for _, row := range []struct {
			label string
			value float64
		}{{"min", sum.Min}, {"max", sum.Max}, {"sum", sum.Sum}, {"mean", sum.Mean}} {
			fmt.Fprintf(tw, "%s:\t%s\n", row.label, validate.Format(types.TypeDecimal, row.value))
		}
	}
	return tw.Flush()
}

// WriteSchema prints the fields of a kind and their constraints.
func WriteSchema(w io.Writer, schema types.Schema) error {
	fmt.Fprintf(w, "%s: %s\n", schema.Kind, schema.Description)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tDEFAULT\tRULES")
	fmt.Fprintln(tw, "-----\t----\t--------\t-------\t-----")
	for _, f := range schema.Fields {
		var notes []string
		if f.Name == schema.Key {
			notes = append(notes, "key")
		}
		if f.Ref != "" {
			notes = append(notes, "ref "+f.Ref)
		}
		for _, r := range f.Rules {
			notes = append(notes, r.Name())
		}
		required := ""
		if f.Required {
			required = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Type, required, f.Default, strings.Join(notes, ", "))
	}
	return tw.Flush()
}

func truncate(s string) string {
	if len(s) > maxCell {
		return s[:maxCell-3] + "..."
	}
	return s
}
