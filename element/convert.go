package element

import (
	"errors"
	"fmt"
	"math"
	"sort"

	json "github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUnsupported is returned when a Go value has no JSON-like equivalent.
var ErrUnsupported = errors.New("element: unsupported value")

// ParseJSON decodes a JSON document into an Element. Object property order
// is normalized to sorted order since the decoder does not retain it.
func ParseJSON(data []byte) (Element, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Undefined(), fmt.Errorf("element: parse json: %w", err)
	}
	return FromGo(v)
}

// FromGo converts decoded JSON values (nil, bool, numbers, string, []any,
// map[string]any) and Elements into an Element.
func FromGo(v any) (Element, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Element:
		return x, nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Number(float64(x)), nil
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case string:
		return String(x), nil
	case []any:
		items := make([]Element, len(x))
		for i, it := range x {
			e, err := FromGo(it)
			if err != nil {
				return Undefined(), err
			}
			items[i] = e
		}
		return Element{kind: KindArray, items: items}, nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for k := range x {
			names = append(names, k)
		}
		sort.Strings(names)
		props := make([]Property, len(names))
		for i, k := range names {
			e, err := FromGo(x[k])
			if err != nil {
				return Undefined(), err
			}
			props[i] = Property{Name: k, Value: e}
		}
		return Element{kind: KindObject, props: props}, nil
	default:
		return Undefined(), fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// FromStructpb converts a protobuf JSON value. A nil value is Undefined.
func FromStructpb(v *structpb.Value) (Element, error) {
	if v == nil {
		return Undefined(), nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return Null(), nil
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return Undefined(), fmt.Errorf("%w: non-finite number", ErrUnsupported)
		}
		return Number(k.NumberValue), nil
	case *structpb.Value_StringValue:
		return String(k.StringValue), nil
	case *structpb.Value_ListValue:
		values := k.ListValue.GetValues()
		items := make([]Element, len(values))
		for i, it := range values {
			e, err := FromStructpb(it)
			if err != nil {
				return Undefined(), err
			}
			items[i] = e
		}
		return Element{kind: KindArray, items: items}, nil
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		props := make([]Property, len(names))
		for i, name := range names {
			e, err := FromStructpb(fields[name])
			if err != nil {
				return Undefined(), err
			}
			props[i] = Property{Name: name, Value: e}
		}
		return Element{kind: KindObject, props: props}, nil
	default:
		return Undefined(), nil
	}
}

// ToStructpb converts e into a protobuf JSON value. Undefined has no
// protobuf representation and is reported as an error.
func ToStructpb(e Element) (*structpb.Value, error) {
	switch e.kind {
	case KindNull:
		return structpb.NewNullValue(), nil
	case KindBoolean:
		return structpb.NewBoolValue(e.b), nil
	case KindNumber:
		return structpb.NewNumberValue(e.n), nil
	case KindString:
		return structpb.NewStringValue(e.s), nil
	case KindArray:
		values := make([]*structpb.Value, len(e.items))
		for i, it := range e.items {
			v, err := ToStructpb(it)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
	case KindObject:
		fields := make(map[string]*structpb.Value, len(e.props))
		for _, p := range e.props {
			v, err := ToStructpb(p.Value)
			if err != nil {
				return nil, err
			}
			fields[p.Name] = v
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	default:
		return nil, fmt.Errorf("%w: %s has no protobuf form", ErrUnsupported, e.kind)
	}
}
