package form

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnamSon/gformfiller/pkg/responses"
)

func TestParseAnswerTableKeepsOrder(t *testing.T) {
	table, err := ParseAnswerTable([]byte(`
TextResponse:
  zeta: last
  alpha: first
  'first\ name | prénom': John
RadioResponse:
  gender: Male
TimeResponse:
  heure: 08:30
`))
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Expr: "zeta", Answer: "last"},
		{Expr: "alpha", Answer: "first"},
		{Expr: `first\ name | prénom`, Answer: "John"},
	}, table[responses.KindText])
	assert.Equal(t, []Entry{{Expr: "gender", Answer: "Male"}}, table[responses.KindRadio])
	assert.Equal(t, "08:30", table[responses.KindTime][0].Answer)
	assert.Equal(t, 5, table.Len())
}

func TestParseAnswerTableEscapedExpressions(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"single quoted", "TextResponse:\n  'first\\ name | prénom': John\n"},
		{"plain", "TextResponse:\n  first\\ name | prénom: John\n"},
		{"json", `{"TextResponse": {"first\\ name | prénom": "John"}}`},
		{"double quoted with escaped backslash", "TextResponse:\n  \"first\\\\ name | prénom\": John\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseAnswerTable([]byte(tt.data))
			require.NoError(t, err)
			require.Len(t, table[responses.KindText], 1)
			assert.Equal(t, `first\ name | prénom`, table[responses.KindText][0].Expr)

			e, ok := table.Lookup(responses.KindText, "First name")
			require.True(t, ok)
			assert.Equal(t, "John", e.Answer)
		})
	}
}

func TestParseAnswerTableRejectsDoubleQuotedEscapes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"escaped space", "TextResponse:\n  \"first\\ name | prénom\": John\n"},
		{"escaped tab", "TextResponse:\n  name: x\n  \"a\\tb\": y\n"},
		{"unknown escape", "TextResponse:\n  \"user\\&admin\": John\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswerTable([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "single quotes")
		})
	}
}

func TestParseAnswerTableJSON(t *testing.T) {
	table, err := ParseAnswerTable([]byte(`{"TextResponse": {"name": "John", "age": "42"}}`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"name", "John"}, {"age", "42"}}, table[responses.KindText])
}

func TestParseAnswerTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", "PhoneResponse:\n  phone: 1"},
		{"kind is not a mapping", "TextResponse: John"},
		{"answer is not a scalar", "TextResponse:\n  name: [a, b]"},
		{"top level is a list", "- TextResponse"},
		{"invalid yaml", "TextResponse: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswerTable([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseAnswerTableEmpty(t *testing.T) {
	table, err := ParseAnswerTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	table, err = ParseAnswerTable([]byte("TextResponse:\n"))
	require.NoError(t, err)
	assert.Empty(t, table[responses.KindText])
}

func TestAnswerTableJSONRoundTrip(t *testing.T) {
	table := AnswerTable{
		responses.KindText:  {{"zeta", "z"}, {"alpha", "a"}},
		responses.KindRadio: {{"gender", `M "quoted"`}},
	}
	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"RadioResponse":{"gender":"M \"quoted\""},"TextResponse":{"zeta":"z","alpha":"a"}}`, string(data))

	var decoded AnswerTable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, table, decoded)
}

func TestLookup(t *testing.T) {
	table := AnswerTable{
		responses.KindText: {
			{"(first", "broken"},
			{"email", "john@example.com"},
			{"name", "John"},
			{"first & name", "unreachable"},
		},
	}

	e, ok := table.Lookup(responses.KindText, "What is your first NAME?")
	require.True(t, ok)
	assert.Equal(t, "John", e.Answer)

	e, ok = table.Lookup(responses.KindText, "Email address")
	require.True(t, ok)
	assert.Equal(t, "john@example.com", e.Answer)

	_, ok = table.Lookup(responses.KindText, "Phone")
	assert.False(t, ok)

	_, ok = table.Lookup(responses.KindDate, "name")
	assert.False(t, ok)
}

func TestLoadAnswerTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DateResponse:\n  birth: 1990-01-31\n"), 0644))

	table, err := LoadAnswerTable(path)
	require.NoError(t, err)
	assert.Equal(t, "1990-01-31", table[responses.KindDate][0].Answer)

	_, err = LoadAnswerTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
