package catalog

import (
	"time"

	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// Built-in kind names.
const (
	KindContacts    = "contacts"
	KindProducts    = "products"
	KindVehicles    = "vehicles"
	KindTasks       = "tasks"
	KindUsers       = "users"
	KindMessages    = "messages"
	KindReadings    = "readings"
	KindIngredients = "ingredients"
	KindPastries    = "pastries"
	KindCustomers   = "customers"
	KindOrders      = "orders"
	KindClients     = "clients"
	KindBooks       = "books"
)

// Task states.
const (
	TaskActive    = "active"
	TaskFinished  = "finished"
	TaskCancelled = "cancelled"
)

// Builtin returns a catalog holding every built-in kind.
func Builtin() *Catalog {
	c := New()
	for _, s := range builtinSchemas(time.Now) {
		if err := c.Register(s); err != nil {
			panic(err)
		}
	}
	return c
}

func name(field string) types.Field {
	return types.Field{Name: field, Type: types.TypeText, Required: true, Rules: []types.Rule{validate.NonEmpty()}}
}

func phone(field string) types.Field {
	return types.Field{Name: field, Type: types.TypeText, Required: true, Rules: []types.Rule{validate.Digits()}}
}

// builtinSchemas lists the built-in kinds in dependency order: referenced
// kinds come before the kinds that reference them.
func builtinSchemas(now func() time.Time) []types.Schema {
	return []types.Schema{
		{
			Kind:        KindContacts,
			Description: "Address book entries",
			Key:         "name",
			OrderBy:     "name",
			Fields: []types.Field{
				name("name"),
				phone("phone"),
				{Name: "email", Type: types.TypeText, Required: true, Rules: []types.Rule{validate.Email()}},
			},
		},
		{
			Kind:        KindProducts,
			Description: "Stock inventory",
			Key:         "code",
			OrderBy:     types.OrderByKey,
			Fields: []types.Field{
				{Name: "code", Type: types.TypeText, Required: true, Rules: []types.Rule{
					validate.Pattern(`[a-zA-Z0-9]{5,10}`, "must be 5-10 letters or digits"),
				}},
				name("name"),
				{Name: "quantity", Type: types.TypeInteger, Default: "0", Rules: []types.Rule{validate.Min(0)}},
			},
		},
		{
			Kind:        KindVehicles,
			Description: "Parked vehicles",
			Key:         "plate",
			Fields: []types.Field{
				{Name: "plate", Type: types.TypeText, Required: true, Rules: []types.Rule{
					validate.Pattern(`\d{4}[A-Z]{3}`, "must be 4 digits and 3 capital letters (e.g. 1234ABC)"),
				}},
				name("brand"),
				name("model"),
				{Name: "year", Type: types.TypeInteger, Required: true, Rules: []types.Rule{
					validate.IntRange(1950, 9999), validate.YearNotAfter(now),
				}},
				{Name: "speed", Type: types.TypeInteger, Default: "0", Description: "km/h", Rules: []types.Rule{validate.IntRange(0, 200)}},
			},
		},
		{
			Kind:        KindTasks,
			Description: "Calendar tasks",
			Key:         "name",
			OrderBy:     "date",
			Fields: []types.Field{
				name("name"),
				{Name: "description", Type: types.TypeText},
				{Name: "date", Type: types.TypeDate, Required: true},
				{Name: "time", Type: types.TypeTime, Required: true},
				{Name: "duration", Type: types.TypeDuration, Required: true, Description: "minutes", Rules: []types.Rule{validate.Positive()}},
				{Name: "state", Type: types.TypeText, Default: TaskActive, Rules: []types.Rule{validate.OneOf(TaskActive, TaskFinished, TaskCancelled)}},
			},
		},
		{
			Kind:        KindUsers,
			Description: "Chat users",
			Key:         "name",
			OrderBy:     types.OrderByKey,
			Fields:      []types.Field{name("name")},
		},
		{
			Kind:         KindMessages,
			Description:  "Chat messages between users",
			GeneratedKey: true,
			OrderBy:      "sent_at",
			Fields: []types.Field{
				{Name: "sender", Type: types.TypeText, Required: true, Ref: KindUsers},
				{Name: "receiver", Type: types.TypeText, Required: true, Ref: KindUsers},
				{Name: "text", Type: types.TypeText, Required: true},
				{Name: "sent_at", Type: types.TypeDateTime, Default: types.DefaultNow},
			},
		},
		{
			Kind:         KindReadings,
			Description:  "Weather station temperature readings",
			GeneratedKey: true,
			OrderBy:      "taken_at",
			Fields: []types.Field{
				{Name: "temperature", Type: types.TypeDecimal, Required: true, Description: "°C", Rules: []types.Rule{validate.DecimalRange(-90, 60)}},
				{Name: "taken_at", Type: types.TypeDateTime, Default: types.DefaultNow},
			},
		},
		{
			Kind:        KindIngredients,
			Description: "Bakery ingredients in stock",
			Key:         "name",
			Fields: []types.Field{
				name("name"),
				{Name: "grams", Type: types.TypeInteger, Default: "0", Rules: []types.Rule{validate.Min(0)}},
			},
		},
		{
			Kind:        KindPastries,
			Description: "Bakery products",
			Key:         "name",
			Fields: []types.Field{
				name("name"),
				{Name: "price", Type: types.TypeDecimal, Required: true, Description: "euros", Rules: []types.Rule{validate.Positive()}},
				{Name: "ingredients", Type: types.TypeList, Ref: KindIngredients},
			},
		},
		{
			Kind:        KindCustomers,
			Description: "Bakery customers",
			Key:         "name",
			Fields:      []types.Field{name("name"), phone("phone")},
		},
		{
			Kind:         KindOrders,
			Description:  "Bakery orders",
			GeneratedKey: true,
			OrderBy:      "date",
			Fields: []types.Field{
				{Name: "customer", Type: types.TypeText, Required: true, Ref: KindCustomers},
				{Name: "items", Type: types.TypeList, Required: true, Ref: KindPastries, Rules: []types.Rule{validate.NonEmpty()}},
				{Name: "date", Type: types.TypeDate, Default: types.DefaultToday},
			},
		},
		{
			Kind:        KindClients,
			Description: "Client register",
			Key:         "id",
			OrderBy:     types.OrderByKey,
			Fields: []types.Field{
				{Name: "id", Type: types.TypeInteger, Required: true, Rules: []types.Rule{validate.Positive()}},
				name("name"),
				phone("phone"),
			},
		},
		{
			Kind:        KindBooks,
			Description: "Book register",
			Key:         "isbn",
			Fields: []types.Field{
				{Name: "isbn", Type: types.TypeText, Required: true, Rules: []types.Rule{
					validate.Pattern(`\d{13}`, "must contain exactly 13 digits"),
				}},
				name("title"),
				name("author"),
			},
		},
	}
}
