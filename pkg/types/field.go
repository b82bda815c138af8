package types

// FieldType selects how a raw field value is parsed and compared.
type FieldType string

// Field types.
const (
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeDecimal  FieldType = "decimal"
	TypeDate     FieldType = "date"
	TypeTime     FieldType = "time"
	TypeDateTime FieldType = "datetime"
	TypeDuration FieldType = "duration"
	TypeList     FieldType = "list"
)

// validFieldTypes is the set of recognized field types.
var validFieldTypes = map[FieldType]bool{
	TypeText:     true,
	TypeInteger:  true,
	TypeDecimal:  true,
	TypeDate:     true,
	TypeTime:     true,
	TypeDateTime: true,
	TypeDuration: true,
	TypeList:     true,
}

// Valid reports whether t is a recognized field type.
func (t FieldType) Valid() bool {
	return validFieldTypes[t]
}

// Numeric reports whether values of type t can be summed and adjusted.
func (t FieldType) Numeric() bool {
	return t == TypeInteger || t == TypeDecimal || t == TypeDuration
}

// Default value tokens resolved at insert time for date-like fields.
const (
	DefaultNow   = "now"
	DefaultToday = "today"
)

// Rule checks one canonical field value. Check returns an error whose message
// is the rejection reason.
type Rule interface {
	Name() string
	Check(value any) error
}

// Field describes one attribute of a record and the rules its value obeys.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     string // Raw value used when the input is empty.
	Ref         string // Kind whose keys this field must reference.
	Description string
	Rules       []Rule
}
