// Package types defines the record, schema, snapshot and configuration types
// shared by every keeper store, together with the standard error values and
// the flat error-kind enumeration used to classify failures.
package types
