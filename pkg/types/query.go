package types

// OrderByKey orders records by key.
const OrderByKey = "key"

// ListOptions controls the order and size of a listing. The zero value lists
// every record in insertion order.
type ListOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// Filter maps field names to raw values a record must match.
type Filter map[string]string

// Summary aggregates a numeric field over a store.
type Summary struct {
	Field string  `json:"field"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}
