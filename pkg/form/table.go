package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/EnamSon/gformfiller/pkg/dsl"
	"github.com/EnamSon/gformfiller/pkg/responses"
)

// Entry pairs a matching expression with the answer applied when the
// expression matches a question label.
type Entry struct {
	Expr   string
	Answer string
}

// AnswerTable maps a response kind to its entries in declaration order.
//
// Tables are written as a YAML (or JSON) mapping of kind name to a mapping
// of expression to answer:
//
//	TextResponse:
//	  'first\ name | prénom': John
//	RadioResponse:
//	  gender: Male
//
// Expressions that use backslash escapes go in single quotes or unquoted.
// YAML double quotes decode their own escapes first, so a double-quoted key
// is only accepted when its escapes are \\, \", \/ or \u.
type AnswerTable map[responses.Kind][]Entry

// ParseAnswerTable decodes a YAML or JSON answer table, keeping the order
// in which expressions are declared.
func ParseAnswerTable(data []byte) (AnswerTable, error) {
	t := AnswerTable{}
	if len(bytes.TrimSpace(data)) == 0 {
		return t, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		if strings.Contains(err.Error(), "escape character") {
			return nil, fmt.Errorf("failed to parse answer table: %w (quote expressions with backslashes in single quotes)", err)
		}
		return nil, fmt.Errorf("failed to parse answer table: %w", err)
	}
	if len(doc.Content) == 0 {
		return t, nil
	}
	d := tableDecoder{lines: strings.Split(string(data), "\n")}
	if err := d.decode(&t, doc.Content[0]); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadAnswerTable reads an answer table file.
func LoadAnswerTable(path string) (AnswerTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer table: %w", err)
	}
	return ParseAnswerTable(data)
}

// UnmarshalYAML implements yaml.Unmarshaler. The source text is not
// available here, so double-quoted escapes are not checked.
func (t *AnswerTable) UnmarshalYAML(node *yaml.Node) error {
	return tableDecoder{}.decode(t, node)
}

// tableDecoder walks a decoded document. lines holds the source text when
// it is known and is used to inspect double-quoted keys.
type tableDecoder struct {
	lines []string
}

func (d tableDecoder) decode(t *AnswerTable, node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("answer table line %d: expected a mapping of response kinds", node.Line)
	}
	if *t == nil {
		*t = AnswerTable{}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		kind, ok := responses.ParseKind(key.Value)
		if !ok {
			return fmt.Errorf("answer table line %d: unknown response kind %q", key.Line, key.Value)
		}
		entries, err := d.entries(value)
		if err != nil {
			return fmt.Errorf("answer table %s: %w", kind, err)
		}
		(*t)[kind] = append((*t)[kind], entries...)
	}
	return nil
}

func (d tableDecoder) entries(node *yaml.Node) ([]Entry, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of expressions to answers", node.Line)
	}
	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		expr, answer := node.Content[i], node.Content[i+1]
		if answer.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: answer for %q must be a scalar", answer.Line, expr.Value)
		}
		if err := d.checkEscapes(expr); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Expr: expr.Value, Answer: answer.Value})
	}
	return entries, nil
}

// checkEscapes rejects a double-quoted key whose YAML escapes change the
// expression, such as "first\ name" decoding to "first name".
func (d tableDecoder) checkEscapes(key *yaml.Node) error {
	if key.Style != yaml.DoubleQuotedStyle || key.Line < 1 || key.Line > len(d.lines) {
		return nil
	}
	// yaml columns count characters, not bytes.
	raw := []rune(d.lines[key.Line-1])
	start := key.Column - 1
	if start < 0 || start >= len(raw) || raw[start] != '"' {
		return nil
	}
	for i := start + 1; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			return nil
		case '\\':
			if i+1 >= len(raw) {
				return nil
			}
			switch raw[i+1] {
			case '\\', '"', '/', 'u':
				i++
			default:
				return fmt.Errorf("line %d: expression %q uses the escape \\%c inside double quotes; write it in single quotes to keep the backslash",
					key.Line, key.Value, raw[i+1])
			}
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. JSON objects are valid YAML,
// so order is preserved the same way.
func (t *AnswerTable) UnmarshalJSON(data []byte) error {
	parsed, err := ParseAnswerTable(data)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON writes the table as a JSON object in kind priority order,
// keeping the entry order inside each kind.
func (t AnswerTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, kind := range responses.Kinds() {
		entries, ok := t[kind]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeJSONString(&buf, kind.String())
		buf.WriteString(":{")
		for i, e := range entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(&buf, e.Expr)
			buf.WriteByte(':')
			writeJSONString(&buf, e.Answer)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// Lookup returns the first entry of kind whose expression matches label.
// Expressions with syntax errors never match.
func (t AnswerTable) Lookup(kind responses.Kind, label string) (Entry, bool) {
	for _, e := range t[kind] {
		if dsl.MatchCase(label, e.Expr, true) == dsl.Matched {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries across all kinds.
func (t AnswerTable) Len() int {
	n := 0
	for _, entries := range t {
		n += len(entries)
	}
	return n
}
