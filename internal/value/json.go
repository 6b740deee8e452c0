package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON encodes only the payload; the tag travels beside it in
// Timestamped or in a topic declaration.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.tag {
	case TagBool:
		return json.Marshal(v.b)
	case TagDouble, TagFloat:
		return json.Marshal(v.num)
	case TagInt:
		return json.Marshal(v.i)
	case TagString:
		return json.Marshal(v.s)
	case TagRaw:
		// Byte buffers go out as number arrays, matching the backend.
		nums := make([]int, len(v.raw))
		for i, b := range v.raw {
			nums[i] = int(b)
		}
		return json.Marshal(nums)
	case TagBoolArray:
		return json.Marshal(v.bools)
	case TagDoubleArray, TagFloatArray:
		return json.Marshal(v.nums)
	case TagIntArray:
		return json.Marshal(v.ints)
	case TagStringArray:
		return json.Marshal(v.strs)
	}
	return nil, fmt.Errorf("marshal value: %w: zero Value", ErrUnsupportedShape)
}

// Decode parses a JSON payload as a value of the given tag.
func Decode(tag Tag, data []byte) (Value, error) {
	if !tag.Valid() {
		return Value{}, fmt.Errorf("decode value: invalid tag %d", uint8(tag))
	}
	if isNull(data) {
		return Zero(tag)
	}
	out := Value{tag: tag}
	var err error
	switch tag {
	case TagBool:
		err = json.Unmarshal(data, &out.b)
	case TagDouble, TagFloat:
		err = json.Unmarshal(data, &out.num)
	case TagInt:
		err = json.Unmarshal(data, &out.i)
	case TagString:
		err = json.Unmarshal(data, &out.s)
	case TagRaw:
		out.raw, err = decodeRaw(data)
	case TagBoolArray:
		err = json.Unmarshal(data, &out.bools)
	case TagDoubleArray, TagFloatArray:
		err = json.Unmarshal(data, &out.nums)
	case TagIntArray:
		err = json.Unmarshal(data, &out.ints)
	case TagStringArray:
		err = json.Unmarshal(data, &out.strs)
	}
	if err == nil {
		err = narrowFloats(&out)
	}
	if err != nil {
		return Value{}, fmt.Errorf("decode %s: %w", tag, err)
	}
	return normalize(out), nil
}

// narrowFloats rounds Float and FloatArray payloads to float32 precision so
// decoded values equal their constructed counterparts.
func narrowFloats(v *Value) error {
	switch v.tag {
	case TagFloat:
		f, err := toFloat32(v.num)
		if err != nil {
			return err
		}
		v.num = f
	case TagFloatArray:
		for i, n := range v.nums {
			f, err := toFloat32(n)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			v.nums[i] = f
		}
	}
	return nil
}

func toFloat32(f float64) (float64, error) {
	if math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%g overflows float32", f)
	}
	return float64(float32(f)), nil
}

func decodeRaw(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var b []byte
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return nil, err
		}
		return b, nil
	}
	var nums []int
	if err := json.Unmarshal(trimmed, &nums); err != nil {
		return nil, err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// normalize replaces nil sequences with empty ones so decoded and constructed
// values compare and encode alike.
func normalize(v Value) Value {
	switch v.tag {
	case TagRaw:
		v.raw = cloneOrEmpty(v.raw)
	case TagBoolArray:
		v.bools = cloneOrEmpty(v.bools)
	case TagDoubleArray, TagFloatArray:
		v.nums = cloneOrEmpty(v.nums)
	case TagIntArray:
		v.ints = cloneOrEmpty(v.ints)
	case TagStringArray:
		v.strs = cloneOrEmpty(v.strs)
	}
	return v
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

type timestampedWire struct {
	Type      Tag             `json:"type"`
	Value     json.RawMessage `json:"value"`
	Timestamp Timestamp       `json:"timestamp"`
}

func (t Timestamped) MarshalJSON() ([]byte, error) {
	payload, err := t.value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(timestampedWire{Type: t.value.tag, Value: payload, Timestamp: t.timestamp})
}

func (t *Timestamped) UnmarshalJSON(data []byte) error {
	var wire timestampedWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode timestamped value: %w", err)
	}
	v, err := Decode(wire.Type, wire.Value)
	if err != nil {
		return err
	}
	t.value = v
	t.timestamp = wire.Timestamp
	return nil
}
