// Package validate turns raw field input into canonical record values and
// checks them against the rules declared on each field. Every function is
// pure apart from the clock used to resolve "now" and "today" defaults.
//
// Canonical values by field type:
//
//	text      string
//	integer   int64
//	decimal   float64
//	date      string, 2006-01-02
//	time      string, 15:04
//	datetime  string, RFC 3339 in UTC
//	duration  int64 minutes
//	list      []string
package validate
