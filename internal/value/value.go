package value

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrUnsupportedShape is returned when a Go value cannot be mapped onto a Tag.
var ErrUnsupportedShape = errors.New("unsupported value shape")

// Value is an immutable typed payload. Build it with one of the constructors;
// the zero Value is invalid.
type Value struct {
	tag   Tag
	b     bool
	num   float64
	i     int64
	s     string
	raw   []byte
	bools []bool
	nums  []float64
	ints  []int64
	strs  []string
}

func Bool(v bool) Value      { return Value{tag: TagBool, b: v} }
func Double(v float64) Value { return Value{tag: TagDouble, num: v} }
func Float(v float32) Value  { return Value{tag: TagFloat, num: float64(v)} }
func Int(v int64) Value      { return Value{tag: TagInt, i: v} }
func String(v string) Value  { return Value{tag: TagString, s: v} }

// Raw copies b into a byte-buffer value.
func Raw(b []byte) Value { return Value{tag: TagRaw, raw: cloneOrEmpty(b)} }

func BoolArray(v []bool) Value      { return Value{tag: TagBoolArray, bools: cloneOrEmpty(v)} }
func DoubleArray(v []float64) Value { return Value{tag: TagDoubleArray, nums: cloneOrEmpty(v)} }
func IntArray(v []int64) Value      { return Value{tag: TagIntArray, ints: cloneOrEmpty(v)} }
func StringArray(v []string) Value  { return Value{tag: TagStringArray, strs: cloneOrEmpty(v)} }

func FloatArray(v []float32) Value {
	nums := make([]float64, len(v))
	for i, f := range v {
		nums[i] = float64(f)
	}
	return Value{tag: TagFloatArray, nums: nums}
}

// Zero returns the empty value of tag: false, 0, "" or an empty sequence.
func Zero(tag Tag) (Value, error) {
	switch tag {
	case TagBool:
		return Bool(false), nil
	case TagDouble:
		return Double(0), nil
	case TagFloat:
		return Float(0), nil
	case TagInt:
		return Int(0), nil
	case TagString:
		return String(""), nil
	case TagRaw:
		return Raw(nil), nil
	case TagBoolArray:
		return BoolArray(nil), nil
	case TagDoubleArray:
		return DoubleArray(nil), nil
	case TagFloatArray:
		return FloatArray(nil), nil
	case TagIntArray:
		return IntArray(nil), nil
	case TagStringArray:
		return StringArray(nil), nil
	}
	return Value{}, fmt.Errorf("%w: no zero value for %s", ErrUnsupportedShape, tag)
}

// Tag returns the variant of v. It is TagInvalid only for the zero Value.
func (v Value) Tag() Tag { return v.tag }

// IsValid reports whether v was built by a constructor.
func (v Value) IsValid() bool { return v.tag.Valid() }

func (v Value) AsBool() (bool, bool) { return v.b, v.tag == TagBool }

// AsFloat64 returns Double and Float payloads.
func (v Value) AsFloat64() (float64, bool) {
	return v.num, v.tag == TagDouble || v.tag == TagFloat
}

func (v Value) AsInt64() (int64, bool)   { return v.i, v.tag == TagInt }
func (v Value) AsString() (string, bool) { return v.s, v.tag == TagString }

func (v Value) AsBytes() ([]byte, bool) {
	if v.tag != TagRaw {
		return nil, false
	}
	return slices.Clone(v.raw), true
}

func (v Value) AsBools() ([]bool, bool) {
	if v.tag != TagBoolArray {
		return nil, false
	}
	return slices.Clone(v.bools), true
}

// AsFloat64s returns DoubleArray and FloatArray payloads.
func (v Value) AsFloat64s() ([]float64, bool) {
	if v.tag != TagDoubleArray && v.tag != TagFloatArray {
		return nil, false
	}
	return slices.Clone(v.nums), true
}

func (v Value) AsInt64s() ([]int64, bool) {
	if v.tag != TagIntArray {
		return nil, false
	}
	return slices.Clone(v.ints), true
}

func (v Value) AsStrings() ([]string, bool) {
	if v.tag != TagStringArray {
		return nil, false
	}
	return slices.Clone(v.strs), true
}

// Len returns the element count of sequence values and -1 for scalars.
func (v Value) Len() int {
	switch v.tag {
	case TagRaw:
		return len(v.raw)
	case TagBoolArray:
		return len(v.bools)
	case TagDoubleArray, TagFloatArray:
		return len(v.nums)
	case TagIntArray:
		return len(v.ints)
	case TagStringArray:
		return len(v.strs)
	}
	return -1
}

// Index returns element i of a sequence value as a scalar Value. Raw bytes come
// back as Int.
func (v Value) Index(i int) (Value, bool) {
	if i < 0 || i >= v.Len() {
		return Value{}, false
	}
	switch v.tag {
	case TagRaw:
		return Int(int64(v.raw[i])), true
	case TagBoolArray:
		return Bool(v.bools[i]), true
	case TagDoubleArray:
		return Double(v.nums[i]), true
	case TagFloatArray:
		return Value{tag: TagFloat, num: v.nums[i]}, true
	case TagIntArray:
		return Int(v.ints[i]), true
	case TagStringArray:
		return String(v.strs[i]), true
	}
	return Value{}, false
}

// IsFinite reports whether every floating-point payload of v is neither NaN
// nor infinite. Non-float values are always finite.
func (v Value) IsFinite() bool {
	switch v.tag {
	case TagDouble, TagFloat:
		return finite(v.num)
	case TagDoubleArray, TagFloatArray:
		for _, n := range v.nums {
			if !finite(n) {
				return false
			}
		}
	}
	return true
}

// Equal compares tag and payload. NaN payloads compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagBool:
		return v.b == o.b
	case TagDouble, TagFloat:
		return floatEq(v.num, o.num)
	case TagInt:
		return v.i == o.i
	case TagString:
		return v.s == o.s
	case TagRaw:
		return bytes.Equal(v.raw, o.raw)
	case TagBoolArray:
		return slices.Equal(v.bools, o.bools)
	case TagDoubleArray, TagFloatArray:
		return slices.EqualFunc(v.nums, o.nums, floatEq)
	case TagIntArray:
		return slices.Equal(v.ints, o.ints)
	case TagStringArray:
		return slices.Equal(v.strs, o.strs)
	}
	return true
}

func (v Value) String() string {
	var payload string
	switch v.tag {
	case TagBool:
		payload = strconv.FormatBool(v.b)
	case TagDouble:
		payload = strconv.FormatFloat(v.num, 'g', -1, 64)
	case TagFloat:
		payload = strconv.FormatFloat(v.num, 'g', -1, 32)
	case TagInt:
		payload = strconv.FormatInt(v.i, 10)
	case TagString:
		payload = strconv.Quote(v.s)
	case TagRaw:
		payload = fmt.Sprintf("%d bytes", len(v.raw))
	case TagBoolArray:
		payload = fmt.Sprint(v.bools)
	case TagDoubleArray, TagFloatArray:
		payload = fmt.Sprint(v.nums)
	case TagIntArray:
		payload = fmt.Sprint(v.ints)
	case TagStringArray:
		quoted := make([]string, len(v.strs))
		for i, s := range v.strs {
			quoted[i] = strconv.Quote(s)
		}
		payload = "[" + strings.Join(quoted, " ") + "]"
	default:
		return "Invalid()"
	}
	return v.tag.String() + "(" + payload + ")"
}

// TagOf reports the tag of a Go value without building it.
func TagOf(x any) (Tag, error) {
	switch v := x.(type) {
	case Value:
		if !v.IsValid() {
			return TagInvalid, fmt.Errorf("%w: zero Value", ErrUnsupportedShape)
		}
		return v.tag, nil
	case bool:
		return TagBool, nil
	case float64:
		return TagDouble, nil
	case float32:
		return TagFloat, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return TagInt, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return TagInvalid, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedShape, v)
		}
		return TagInt, nil
	case uint64:
		if v > math.MaxInt64 {
			return TagInvalid, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedShape, v)
		}
		return TagInt, nil
	case string:
		return TagString, nil
	case []byte:
		return TagRaw, nil
	case []bool:
		return TagBoolArray, nil
	case []float64:
		return TagDoubleArray, nil
	case []float32:
		return TagFloatArray, nil
	case []int, []int32, []int64:
		return TagIntArray, nil
	case []string:
		return TagStringArray, nil
	case []any:
		return tagOfElements(v)
	}
	return TagInvalid, fmt.Errorf("%w: %T", ErrUnsupportedShape, x)
}

func tagOfElements(elems []any) (Tag, error) {
	if len(elems) == 0 {
		return TagInvalid, fmt.Errorf("%w: empty array has no element type", ErrUnsupportedShape)
	}
	var elem Tag
	for i, e := range elems {
		t, err := TagOf(e)
		if err != nil {
			return TagInvalid, fmt.Errorf("element %d: %w", i, err)
		}
		if t.IsArray() {
			return TagInvalid, fmt.Errorf("%w: nested %s at element %d", ErrUnsupportedShape, t, i)
		}
		if i == 0 {
			elem = t
			continue
		}
		if t != elem {
			return TagInvalid, fmt.Errorf("%w: mixed array of %s and %s", ErrUnsupportedShape, elem, t)
		}
	}
	switch elem {
	case TagBool:
		return TagBoolArray, nil
	case TagDouble:
		return TagDoubleArray, nil
	case TagFloat:
		return TagFloatArray, nil
	case TagInt:
		return TagIntArray, nil
	case TagString:
		return TagStringArray, nil
	}
	return TagInvalid, fmt.Errorf("%w: array of %s", ErrUnsupportedShape, elem)
}

// FromAny builds the Value for any shape TagOf accepts.
func FromAny(x any) (Value, error) {
	tag, err := TagOf(x)
	if err != nil {
		return Value{}, err
	}
	switch v := x.(type) {
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case float64:
		return Double(v), nil
	case float32:
		return Float(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return Int(int64(v)), nil
	case string:
		return String(v), nil
	case []byte:
		return Raw(v), nil
	case []bool:
		return BoolArray(v), nil
	case []float64:
		return DoubleArray(v), nil
	case []float32:
		return FloatArray(v), nil
	case []int:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}
		return IntArray(ints), nil
	case []int32:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}
		return IntArray(ints), nil
	case []int64:
		return IntArray(v), nil
	case []string:
		return StringArray(v), nil
	case []any:
		return fromElements(tag, v), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedShape, x)
}

// fromElements assumes tagOfElements already accepted elems.
func fromElements(tag Tag, elems []any) Value {
	out := Value{tag: tag}
	for _, e := range elems {
		ev, _ := FromAny(e)
		switch tag {
		case TagBoolArray:
			out.bools = append(out.bools, ev.b)
		case TagDoubleArray, TagFloatArray:
			out.nums = append(out.nums, ev.num)
		case TagIntArray:
			out.ints = append(out.ints, ev.i)
		case TagStringArray:
			out.strs = append(out.strs, ev.s)
		}
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floatEq(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func cloneOrEmpty[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return slices.Clone(s)
}
