package responses

import "fmt"

// Kind is the classified type of a question. Its String form is the key
// used in answer tables.
type Kind int

const (
	KindText Kind = iota + 1
	KindDate
	KindTime
	KindCheckbox
	KindRadio
	KindListbox
	KindFileUpload
)

var kindNames = map[Kind]string{
	KindText:       "TextResponse",
	KindDate:       "DateResponse",
	KindTime:       "TimeResponse",
	KindCheckbox:   "CheckboxResponse",
	KindRadio:      "RadioResponse",
	KindListbox:    "ListboxResponse",
	KindFileUpload: "FileUploadResponse",
}

var kindLabels = map[Kind]string{
	KindText:       "TEXT",
	KindDate:       "DATE",
	KindTime:       "TIME",
	KindCheckbox:   "CHECKBOX",
	KindRadio:      "RADIO",
	KindListbox:    "LISTBOX",
	KindFileUpload: "FILE_UPLOAD",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Label is the upper-case short name used in diagnostics.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return "UNKNOWN"
}

// ParseKind maps an answer table key to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every kind in classification priority order.
func Kinds() []Kind {
	out := make([]Kind, len(registry))
	for i, e := range registry {
		out[i] = e.kind
	}
	return out
}
