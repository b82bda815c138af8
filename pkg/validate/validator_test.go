package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

var clock = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

func productSchema() types.Schema {
	return types.Schema{
		Kind: "products",
		Key:  "code",
		Fields: []types.Field{
			{Name: "code", Type: types.TypeText, Required: true, Rules: []types.Rule{Pattern(`^[a-zA-Z0-9]{5,10}$`, "must be 5-10 letters or digits")}},
			{Name: "name", Type: types.TypeText, Required: true, Rules: []types.Rule{NonEmpty()}},
			{Name: "quantity", Type: types.TypeInteger, Default: "0", Rules: []types.Rule{Min(0)}},
			{Name: "tags", Type: types.TypeList},
		},
	}
}

func TestParse(t *testing.T) {
	v := New(WithClock(clock))

	tests := []struct {
		name    string
		field   types.Field
		raw     string
		want    any
		wantErr error
	}{
		{name: "text trimmed", field: types.Field{Name: "n", Type: types.TypeText}, raw: "  Ana ", want: "Ana"},
		{name: "integer", field: types.Field{Name: "n", Type: types.TypeInteger}, raw: "42", want: int64(42)},
		{name: "integer rejects text", field: types.Field{Name: "n", Type: types.TypeInteger}, raw: "forty", wantErr: types.ErrInvalidField},
		{name: "decimal", field: types.Field{Name: "n", Type: types.TypeDecimal}, raw: "-3.5", want: -3.5},
		{name: "decimal rejects NaN", field: types.Field{Name: "n", Type: types.TypeDecimal}, raw: "NaN", wantErr: types.ErrInvalidField},
		{name: "date european", field: types.Field{Name: "d", Type: types.TypeDate}, raw: "05/11/2024", want: "2024-11-05"},
		{name: "date iso", field: types.Field{Name: "d", Type: types.TypeDate}, raw: "2024-11-05", want: "2024-11-05"},
		{name: "date invalid", field: types.Field{Name: "d", Type: types.TypeDate}, raw: "31/02/2024", wantErr: types.ErrInvalidField},
		{name: "time out of range", field: types.Field{Name: "t", Type: types.TypeTime}, raw: "25:00", wantErr: types.ErrInvalidField},
		{name: "time padded", field: types.Field{Name: "t", Type: types.TypeTime}, raw: "09:05", want: "09:05"},
		{name: "datetime european", field: types.Field{Name: "dt", Type: types.TypeDateTime}, raw: "05/11/2024 18:30", want: "2024-11-05T18:30:00Z"},
		{name: "datetime rfc3339 normalised to utc", field: types.Field{Name: "dt", Type: types.TypeDateTime}, raw: "2024-11-05T18:30:00+02:00", want: "2024-11-05T16:30:00Z"},
		{name: "duration minutes", field: types.Field{Name: "d", Type: types.TypeDuration}, raw: "90", want: int64(90)},
		{name: "duration go syntax", field: types.Field{Name: "d", Type: types.TypeDuration}, raw: "1h30m", want: int64(90)},
		{name: "list", field: types.Field{Name: "l", Type: types.TypeList}, raw: "flan, tart,,", want: []string{"flan", "tart"}},
		{name: "required missing", field: types.Field{Name: "n", Type: types.TypeText, Required: true}, raw: " ", wantErr: types.ErrMissingField},
		{name: "optional missing", field: types.Field{Name: "n", Type: types.TypeText}, raw: "", want: nil},
		{name: "default applied", field: types.Field{Name: "n", Type: types.TypeInteger, Default: "0"}, raw: "", want: int64(0)},
		{name: "today default", field: types.Field{Name: "d", Type: types.TypeDate, Default: types.DefaultToday}, raw: "", want: "2025-03-14"},
		{name: "now default", field: types.Field{Name: "dt", Type: types.TypeDateTime, Default: types.DefaultNow}, raw: "", want: "2025-03-14T09:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Parse(tt.field, tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReportsRule(t *testing.T) {
	v := New()
	f, _ := productSchema().Field("code")

	_, err := v.Parse(f, "AB")
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "code", ve.Field)
	assert.Equal(t, "AB", ve.Value)
	assert.Equal(t, "pattern", ve.Rule)
	assert.Equal(t, "must be 5-10 letters or digits", ve.Reason)

	got, err := v.Parse(f, "12345ABCD")
	require.NoError(t, err)
	assert.Equal(t, "12345ABCD", got)
}

func TestRecord(t *testing.T) {
	v := New()
	s := productSchema()

	got, err := v.Record(s, map[string]string{"code": "ABC123", "name": "Bolt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"code": "ABC123", "name": "Bolt", "quantity": int64(0)}, got)

	_, err = v.Record(s, map[string]string{"code": "ABC123", "name": "Bolt", "colour": "red"})
	assert.ErrorIs(t, err, types.ErrUnknownField)

	_, err = v.Record(s, map[string]string{"code": "ABC123"})
	assert.ErrorIs(t, err, types.ErrMissingField)

	_, err = v.Record(s, map[string]string{"code": "ABC123", "name": "Bolt", "quantity": "-1"})
	assert.ErrorIs(t, err, types.ErrInvalidField)
}

func TestMerge(t *testing.T) {
	v := New()
	s := productSchema()
	current := map[string]any{"code": "ABC123", "name": "Bolt", "quantity": int64(4), "tags": []string{"metal"}}

	got, err := v.Merge(s, current, map[string]string{"quantity": "7", "tags": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"code": "ABC123", "name": "Bolt", "quantity": int64(7)}, got, "empty input clears an optional field")
	assert.Equal(t, int64(4), current["quantity"], "current must not be modified")

	_, err = v.Merge(s, current, map[string]string{"name": ""})
	assert.ErrorIs(t, err, types.ErrMissingField)
}

func TestCoerceDecodedValues(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		field   types.Field
		value   any
		want    any
		wantErr bool
	}{
		{name: "json number to integer", field: types.Field{Name: "q", Type: types.TypeInteger}, value: float64(12), want: int64(12)},
		{name: "fractional number is not integer", field: types.Field{Name: "q", Type: types.TypeInteger}, value: 1.5, wantErr: true},
		{name: "integer to decimal", field: types.Field{Name: "p", Type: types.TypeDecimal}, value: int64(3), want: 3.0},
		{name: "array to list", field: types.Field{Name: "l", Type: types.TypeList}, value: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed array rejected", field: types.Field{Name: "l", Type: types.TypeList}, value: []any{"a", 1.0}, wantErr: true},
		{name: "date string", field: types.Field{Name: "d", Type: types.TypeDate}, value: "2024-01-31", want: "2024-01-31"},
		{name: "text is trimmed", field: types.Field{Name: "n", Type: types.TypeText, Required: true}, value: " Ann ", want: "Ann"},
		{name: "blank optional text dropped", field: types.Field{Name: "n", Type: types.TypeText}, value: "   ", want: nil},
		{name: "text must be string", field: types.Field{Name: "n", Type: types.TypeText}, value: 5.0, wantErr: true},
		{name: "rules still apply", field: types.Field{Name: "s", Type: types.TypeInteger, Rules: []types.Rule{IntRange(0, 200)}}, value: float64(250), wantErr: true},
		{name: "nil optional", field: types.Field{Name: "n", Type: types.TypeText}, value: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Coerce(tt.field, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNowDefaultsShareOneZone(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	v := New(WithClock(func() time.Time { return time.Date(2025, 3, 15, 0, 30, 0, 0, zone) }))

	tests := []struct {
		name  string
		field types.Field
		want  any
	}{
		{name: "datetime", field: types.Field{Name: "at", Type: types.TypeDateTime, Default: types.DefaultNow}, want: "2025-03-14T22:30:00Z"},
		{name: "time", field: types.Field{Name: "hh", Type: types.TypeTime, Default: types.DefaultNow}, want: "22:30"},
		{name: "date", field: types.Field{Name: "day", Type: types.TypeDate, Default: types.DefaultToday}, want: "2025-03-14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Parse(tt.field, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValuesRejectsUnknownField(t *testing.T) {
	_, err := New().Values(productSchema(), map[string]any{"code": "ABC123", "name": "Bolt", "weight": 3.0})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}
