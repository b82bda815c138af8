// Package console runs an interactive numbered menu over the records of one
// kind, reading answers line by line.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/keeper/internal/session"
	"github.com/mesh-intelligence/keeper/internal/store"
	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// clearValue entered at an update prompt clears an optional field.
const clearValue = "-"

// errInputClosed reports that the input ended while a prompt was waiting.
var errInputClosed = errors.New("input closed")

// Console is a menu loop bound to one kind of a session.
type Console struct {
	sess   *session.Session
	schema types.Schema
	in     *bufio.Scanner
	out    io.Writer
}

// New returns a console over kind. The session must be attached.
func New(sess *session.Session, kind string, in io.Reader, out io.Writer) (*Console, error) {
	schema, err := sess.Catalog().Get(kind)
	if err != nil {
		return nil, err
	}
	return &Console{sess: sess, schema: schema, in: bufio.NewScanner(in), out: out}, nil
}

// Run shows the menu until the user exits or the input ends, then saves
// the session. Operation errors are printed and the loop continues; only a
// failed save on exit is returned.
func (c *Console) Run() error {
	st, err := c.sess.Store(c.schema.Kind)
	if err != nil {
		return err
	}
	for {
		c.menu()
		choice, err := c.prompt("> ")
		if err != nil {
			fmt.Fprintln(c.out)
			return c.exit()
		}
		switch choice {
		case "1":
			err = c.add(st)
		case "2":
			err = c.list(st)
		case "3":
			err = c.find(st)
		case "4":
			err = c.update(st)
		case "5":
			err = c.remove(st)
		case "6":
			err = c.search(st)
		case "7":
			err = c.stats(st)
		case "8":
			err = c.save(st)
		case "0":
			return c.exit()
		case "":
			continue
		default:
			err = fmt.Errorf("unknown option %q", choice)
		}
		if errors.Is(err, errInputClosed) {
			fmt.Fprintln(c.out)
			return c.exit()
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *Console) menu() {
	title := c.schema.Kind
	if c.schema.Description != "" {
		title += ": " + c.schema.Description
	}
	fmt.Fprintf(c.out, "\n== %s ==\n", title)
	fmt.Fprintln(c.out, "1) add     2) list    3) find    4) update")
	fmt.Fprintln(c.out, "5) remove  6) search  7) stats   8) save    0) exit")
}

// prompt prints label and returns the next trimmed input line.
func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) add(st *store.Store) error {
	raw := make(map[string]string)
	for _, f := range c.schema.Fields {
		in, err := c.prompt(fieldLabel(f) + ": ")
		if err != nil {
			return err
		}
		if in != "" {
			raw[f.Name] = in
		}
	}
	rec, err := st.Create(raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s\n", rec.Key)
	return nil
}

func (c *Console) list(st *store.Store) error {
	recs, err := st.List(types.ListOptions{OrderBy: c.schema.OrderBy})
	if err != nil {
		return err
	}
	return c.table(recs)
}

func (c *Console) find(st *store.Store) error {
	key, err := c.prompt("key: ")
	if err != nil {
		return err
	}
	rec, err := st.Find(key)
	if err != nil {
		return err
	}
	return WriteRecord(c.out, c.schema, rec)
}

func (c *Console) update(st *store.Store) error {
	key, err := c.prompt("key: ")
	if err != nil {
		return err
	}
	current, err := st.Find(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "enter keeps the current value, %s clears it\n", clearValue)

	raw := make(map[string]string)
	for _, f := range c.schema.Fields {
		if f.Name == c.schema.Key {
			continue
		}
		in, err := c.prompt(fmt.Sprintf("%s [%s]: ", f.Name, validate.Format(f.Type, current.Fields[f.Name])))
		if err != nil {
			return err
		}
		switch in {
		case "":
		case clearValue:
			raw[f.Name] = ""
		default:
			raw[f.Name] = in
		}
	}
	if len(raw) == 0 {
		fmt.Fprintln(c.out, "nothing changed")
		return nil
	}
	if _, err := st.Update(key, raw); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated %s\n", key)
	return nil
}

func (c *Console) remove(st *store.Store) error {
	key, err := c.prompt("key: ")
	if err != nil {
		return err
	}
	if err := st.Remove(key); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "removed %s\n", key)
	return nil
}

func (c *Console) search(st *store.Store) error {
	term, err := c.prompt("search for: ")
	if err != nil {
		return err
	}
	recs, err := st.Search(term)
	if err != nil {
		return err
	}
	return c.table(recs)
}

func (c *Console) stats(st *store.Store) error {
	var numeric []string
	for _, f := range c.schema.Fields {
		if f.Type.Numeric() {
			numeric = append(numeric, f.Name)
		}
	}
	var field string
	switch len(numeric) {
	case 0:
		return fmt.Errorf("%s has no numeric fields: %w", c.schema.Kind, types.ErrNotNumeric)
	case 1:
		field = numeric[0]
	default:
		in, err := c.prompt(fmt.Sprintf("field (%s): ", strings.Join(numeric, ", ")))
		if err != nil {
			return err
		}
		field = in
	}
	sum, err := st.Stats(field)
	if err != nil {
		return err
	}
	return WriteSummary(c.out, sum)
}

func (c *Console) save(st *store.Store) error {
	if err := c.sess.Save(c.schema.Kind); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved %d records\n", st.Len())
	return nil
}

func (c *Console) exit() error {
	if err := c.sess.Save(); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(c.out, "bye")
	return nil
}

func (c *Console) table(recs []types.Record) error {
	if len(recs) == 0 {
		fmt.Fprintln(c.out, "no records")
		return nil
	}
	return WriteTable(c.out, c.schema, recs)
}

// fieldLabel describes a field for an input prompt.
func fieldLabel(f types.Field) string {
	var notes []string
	notes = append(notes, string(f.Type))
	if f.Required && f.Default == "" {
		notes = append(notes, "required")
	}
	if f.Default != "" {
		notes = append(notes, "default "+f.Default)
	}
	if f.Description != "" {
		notes = append(notes, f.Description)
	}
	return fmt.Sprintf("%s (%s)", f.Name, strings.Join(notes, ", "))
}
