package value

import (
	"fmt"
	"strings"
)

// Tag is the protocol type of a topic or value.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagBool
	TagDouble
	TagFloat
	TagInt
	TagString
	TagRaw
	TagBoolArray
	TagDoubleArray
	TagFloatArray
	TagIntArray
	TagStringArray
)

var tagNames = [...]string{
	TagInvalid:     "Invalid",
	TagBool:        "Bool",
	TagDouble:      "Double",
	TagFloat:       "Float",
	TagInt:         "Int",
	TagString:      "String",
	TagRaw:         "Raw",
	TagBoolArray:   "BoolArray",
	TagDoubleArray: "DoubleArray",
	TagFloatArray:  "FloatArray",
	TagIntArray:    "IntArray",
	TagStringArray: "StringArray",
}

// Names used by the native backend for the same types.
var tagAliases = map[string]Tag{
	"boolean":      TagBool,
	"bytearray":    TagRaw,
	"protobuf":     TagRaw,
	"booleanarray": TagBoolArray,
}

// Tags lists every valid tag in declaration order.
func Tags() []Tag {
	return []Tag{
		TagBool, TagDouble, TagFloat, TagInt, TagString, TagRaw,
		TagBoolArray, TagDoubleArray, TagFloatArray, TagIntArray, TagStringArray,
	}
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	return t > TagInvalid && t <= TagStringArray
}

// IsArray reports whether values of this tag hold a sequence. Raw counts as a
// byte sequence.
func (t Tag) IsArray() bool {
	switch t {
	case TagRaw, TagBoolArray, TagDoubleArray, TagFloatArray, TagIntArray, TagStringArray:
		return true
	}
	return false
}

// Element returns the scalar tag of an array tag.
func (t Tag) Element() (Tag, bool) {
	switch t {
	case TagBoolArray:
		return TagBool, true
	case TagDoubleArray:
		return TagDouble, true
	case TagFloatArray:
		return TagFloat, true
	case TagIntArray:
		return TagInt, true
	case TagStringArray:
		return TagString, true
	}
	return TagInvalid, false
}

// ParseTag resolves a wire type name, case-insensitively.
func ParseTag(name string) (Tag, error) {
	trimmed := strings.TrimSpace(name)
	for _, t := range Tags() {
		if strings.EqualFold(trimmed, tagNames[t]) {
			return t, nil
		}
	}
	if t, ok := tagAliases[strings.ToLower(trimmed)]; ok {
		return t, nil
	}
	return TagInvalid, fmt.Errorf("unknown value type %q", name)
}

func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal invalid tag %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
