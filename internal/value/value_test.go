package value

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestTagOf_SupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Tag
	}{
		{"bool", true, TagBool},
		{"float64", 1.5, TagDouble},
		{"whole float64 stays double", float64(1), TagDouble},
		{"float32", float32(1.5), TagFloat},
		{"int", 1, TagInt},
		{"int64", int64(-7), TagInt},
		{"uint16", uint16(9), TagInt},
		{"string", "hi", TagString},
		{"bytes", []byte{1, 2}, TagRaw},
		{"empty bytes", []byte{}, TagRaw},
		{"bools", []bool{true}, TagBoolArray},
		{"float64s", []float64{1, 2}, TagDoubleArray},
		{"empty typed float64s", []float64{}, TagDoubleArray},
		{"float32s", []float32{1}, TagFloatArray},
		{"ints", []int{1, 2}, TagIntArray},
		{"int64s", []int64{1}, TagIntArray},
		{"strings", []string{"a"}, TagStringArray},
		{"homogeneous any", []any{"a", "b"}, TagStringArray},
		{"homogeneous any ints", []any{1, int64(2)}, TagIntArray},
		{"value passthrough", Float(2), TagFloat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TagOf(tt.in)
			if err != nil {
				t.Fatalf("TagOf(%#v) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("TagOf(%#v) = %s, want %s", tt.in, got, tt.want)
			}
			again, _ := TagOf(tt.in)
			if again != got {
				t.Fatalf("TagOf not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestTagOf_UnsupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"zero value", Value{}},
		{"mixed array", []any{1, "a"}},
		{"int and double mix", []any{1, 2.5}},
		{"empty any array", []any{}},
		{"nested array", []any{[]int{1}}},
		{"map", map[string]int{"a": 1}},
		{"struct", struct{ A int }{1}},
		{"overflowing uint64", uint64(math.MaxUint64)},
		{"complex", complex(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TagOf(tt.in)
			if !errors.Is(err, ErrUnsupportedShape) {
				t.Fatalf("TagOf(%#v) error = %v, want ErrUnsupportedShape", tt.in, err)
			}
			if _, err := FromAny(tt.in); !errors.Is(err, ErrUnsupportedShape) {
				t.Fatalf("FromAny(%#v) error = %v, want ErrUnsupportedShape", tt.in, err)
			}
		})
	}
}

func TestFromAny_BuildsMatchingValues(t *testing.T) {
	v, err := FromAny([]any{true, false})
	if err != nil {
		t.Fatalf("FromAny returned error: %v", err)
	}
	bools, ok := v.AsBools()
	if !ok || len(bools) != 2 || !bools[0] || bools[1] {
		t.Fatalf("AsBools = %v, %v; want [true false]", bools, ok)
	}

	v, err = FromAny(1)
	if err != nil {
		t.Fatalf("FromAny(1) returned error: %v", err)
	}
	if !v.Equal(Int(1)) {
		t.Fatalf("FromAny(1) = %s, want Int(1)", v)
	}

	v, err = FromAny(1.5)
	if err != nil {
		t.Fatalf("FromAny(1.5) returned error: %v", err)
	}
	if !v.Equal(Double(1.5)) {
		t.Fatalf("FromAny(1.5) = %s, want Double(1.5)", v)
	}
}

func TestZero_ExplicitEmptyArrays(t *testing.T) {
	for _, tag := range Tags() {
		v, err := Zero(tag)
		if err != nil {
			t.Fatalf("Zero(%s) returned error: %v", tag, err)
		}
		if v.Tag() != tag {
			t.Fatalf("Zero(%s).Tag() = %s", tag, v.Tag())
		}
		if tag.IsArray() && v.Len() != 0 {
			t.Fatalf("Zero(%s).Len() = %d, want 0", tag, v.Len())
		}
	}
	if _, err := Zero(TagInvalid); !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("Zero(TagInvalid) error = %v, want ErrUnsupportedShape", err)
	}
}

func TestValue_AccessorsCopySequences(t *testing.T) {
	src := []int64{1, 2, 3}
	v := IntArray(src)
	src[0] = 99

	got, ok := v.AsInt64s()
	if !ok || got[0] != 1 {
		t.Fatalf("IntArray should copy its input; got %v", got)
	}
	got[1] = 42
	again, _ := v.AsInt64s()
	if again[1] != 2 {
		t.Fatalf("AsInt64s should return a copy; got %v", again)
	}

	if _, ok := v.AsFloat64s(); ok {
		t.Fatalf("AsFloat64s on IntArray should report false")
	}
	elem, ok := v.Index(2)
	if !ok || !elem.Equal(Int(3)) {
		t.Fatalf("Index(2) = %s, %v; want Int(3)", elem, ok)
	}
	if _, ok := v.Index(3); ok {
		t.Fatalf("Index out of range should report false")
	}
}

func TestValue_EqualDistinguishesTags(t *testing.T) {
	if Double(1).Equal(Float(1)) {
		t.Fatalf("Double(1) should not equal Float(1)")
	}
	if Int(1).Equal(Double(1)) {
		t.Fatalf("Int(1) should not equal Double(1)")
	}
	if !Double(math.NaN()).Equal(Double(math.NaN())) {
		t.Fatalf("NaN doubles should compare equal")
	}
	if !Raw(nil).Equal(Raw([]byte{})) {
		t.Fatalf("nil and empty raw buffers should compare equal")
	}
}

func TestParseTag_AcceptsBackendAliases(t *testing.T) {
	tests := map[string]Tag{
		"Bool":         TagBool,
		"boolean":      TagBool,
		"ByteArray":    TagRaw,
		"Protobuf":     TagRaw,
		"BooleanArray": TagBoolArray,
		" IntArray ":   TagIntArray,
	}
	for in, want := range tests {
		got, err := ParseTag(in)
		if err != nil {
			t.Fatalf("ParseTag(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTag(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseTag("Struct"); err == nil {
		t.Fatalf("ParseTag(Struct) returned nil error")
	}
}

func TestTimestamp_MicrosecondsSinceEpoch(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	ts := TimestampOf(when)
	if uint64(ts) != uint64(when.UnixMicro()) {
		t.Fatalf("TimestampOf = %d, want %d", ts, when.UnixMicro())
	}
	if !ts.Time().Equal(when) {
		t.Fatalf("Time() = %v, want %v", ts.Time(), when)
	}
	if TimestampOf(time.Unix(-10, 0)) != 0 {
		t.Fatalf("pre-epoch instants should clamp to zero")
	}

	before := TimestampOf(time.Now())
	now := Now()
	if now < before {
		t.Fatalf("Now() = %d, want >= %d", now, before)
	}
}

func TestNewTimestamped_RejectsZeroValue(t *testing.T) {
	if _, err := NewTimestamped(Value{}, 1); !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("NewTimestamped(zero) error = %v, want ErrUnsupportedShape", err)
	}
	tv := At(String("x"), 5)
	if tv.Tag() != TagString || tv.Timestamp() != 5 {
		t.Fatalf("At = %s, want String@5", tv)
	}
}

func TestValue_IsFinite(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Double(1.5), true},
		{Double(math.NaN()), false},
		{Double(math.Inf(1)), false},
		{Float(float32(math.Inf(-1))), false},
		{DoubleArray([]float64{1, math.NaN()}), false},
		{FloatArray([]float32{1, 2}), true},
		{Int(math.MaxInt64), true},
		{String("NaN"), true},
	}
	for _, tt := range tests {
		if got := tt.v.IsFinite(); got != tt.want {
			t.Errorf("%s.IsFinite() = %v, want %v", tt.v, got, tt.want)
		}
	}
}
