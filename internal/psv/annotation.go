package psv

import "strings"

// BasicType is the coercion target named by an annotation tag.
type BasicType int

const (
	TypeUnknown BasicType = iota
	TypeText
	TypeInteger
	TypeFloat
	TypeBool
	TypeHex
	TypeBase64
	TypeDataURI
	TypeDatetime
	TypeUUID
)

var basicTypeNames = map[BasicType]string{
	TypeUnknown:  "unknown",
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeFloat:    "float",
	TypeBool:     "bool",
	TypeHex:      "hex",
	TypeBase64:   "base64",
	TypeDataURI:  "data-uri",
	TypeDatetime: "datetime",
	TypeUUID:     "uuid",
}

var basicTypeAliases = map[string]BasicType{
	"text":      TypeText,
	"str":       TypeText,
	"string":    TypeText,
	"integer":   TypeInteger,
	"int":       TypeInteger,
	"float":     TypeFloat,
	"number":    TypeFloat,
	"bool":      TypeBool,
	"boolean":   TypeBool,
	"hex":       TypeHex,
	"base64":    TypeBase64,
	"data-uri":  TypeDataURI,
	"datauri":   TypeDataURI,
	"datetime":  TypeDatetime,
	"timestamp": TypeDatetime,
	"uuid":      TypeUUID,
}

func (t BasicType) String() string {
	if name, ok := basicTypeNames[t]; ok {
		return name
	}
	return basicTypeNames[TypeUnknown]
}

// ParseBasicType resolves tag text to a BasicType. Unrecognized tags resolve
// to TypeUnknown.
func ParseBasicType(tag string) BasicType {
	if t, ok := basicTypeAliases[strings.ToLower(TrimSpace(tag))]; ok {
		return t
	}
	return TypeUnknown
}

// AnnotationTag is one `[tag]` hint from a header cell.
type AnnotationTag struct {
	Raw  string
	Type BasicType
	// Consumed is set once a later stage has acted on the tag.
	Consumed bool
}

// ExtractAnnotations returns the `[tag]` spans of header in order. Markdown
// links (`[text](url)`) and empty spans are skipped.
func ExtractAnnotations(header string) []AnnotationTag {
	var tags []AnnotationTag
	i := 0
	for i < len(header) {
		open := strings.IndexByte(header[i:], '[')
		if open < 0 {
			break
		}
		open += i
		closing := strings.IndexByte(header[open+1:], ']')
		if closing < 0 {
			break
		}
		closing += open + 1
		i = closing + 1

		if closing+1 < len(header) && header[closing+1] == '(' {
			continue
		}
		raw := header[open+1 : closing]
		if raw == "" {
			continue
		}
		tags = append(tags, AnnotationTag{Raw: raw, Type: ParseBasicType(raw)})
	}
	return tags
}
