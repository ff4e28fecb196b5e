package registry

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Schema types a parameter or result may declare.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeAny     = "any"
	TypeNull    = "null"
)

// Param is one entry of a handler's ordered parameter schema.
type Param struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
}

// Handler is the uniform invocation interface every command implements.
// The dispatcher decodes arguments into the value returned by NewArgs and
// passes it unchanged to Call.
type Handler interface {
	// Params returns the ordered parameter schema.
	Params() []Param
	// Result names the declared result type.
	Result() string
	// NewArgs returns a pointer to a fresh zero argument value.
	NewArgs() any
	// Call runs the handler.
	Call(ctx context.Context, args any) (any, error)
}

// Func adapts a typed function into a Handler. A must be a struct type;
// its exported fields, in declaration order, form the parameter schema.
// A field is optional when it is a pointer or tagged omitempty.
// Func panics when A is not a struct, since that is a startup programmer
// error.
func Func[A any, R any](fn func(ctx context.Context, args A) (R, error)) Handler {
	if fn == nil {
		panic("registry: nil handler func")
	}
	argsType := reflect.TypeOf((*A)(nil)).Elem()
	params, err := paramsOf(argsType)
	if err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	return &typedHandler[A, R]{
		fn:     fn,
		params: params,
		result: typeName(reflect.TypeOf((*R)(nil)).Elem()),
	}
}

type typedHandler[A any, R any] struct {
	fn     func(context.Context, A) (R, error)
	params []Param
	result string
}

func (h *typedHandler[A, R]) Params() []Param {
	out := make([]Param, len(h.params))
	copy(out, h.params)
	return out
}

func (h *typedHandler[A, R]) Result() string { return h.result }

func (h *typedHandler[A, R]) NewArgs() any { return new(A) }

func (h *typedHandler[A, R]) Call(ctx context.Context, args any) (any, error) {
	a, ok := args.(*A)
	if !ok {
		return nil, fmt.Errorf("registry: unexpected argument type %T", args)
	}
	return h.fn(ctx, *a)
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// paramsOf derives the ordered parameter schema of a struct type, following
// encoding/json field naming.
func paramsOf(t reflect.Type) ([]Param, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type %s is not a struct", t)
	}
	var params []Param
	seen := make(map[string]bool)
	var walk func(t reflect.Type) error
	walk = func(t reflect.Type) error {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, opts, tagged := parseTag(f.Tag.Get("json"))
			if name == "-" && opts == "" {
				continue
			}
			if f.Anonymous && !tagged && f.Type.Kind() == reflect.Struct {
				if err := walk(f.Type); err != nil {
					return err
				}
				continue
			}
			if !f.IsExported() {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if seen[name] {
				return fmt.Errorf("argument type %s declares %q twice", t, name)
			}
			seen[name] = true
			params = append(params, Param{
				Name:     name,
				Type:     typeName(f.Type),
				Required: f.Type.Kind() != reflect.Pointer && !strings.Contains(opts, "omitempty"),
			})
		}
		return nil
	}
	if err := walk(t); err != nil {
		return nil, err
	}
	return params, nil
}

func parseTag(tag string) (name, opts string, tagged bool) {
	if tag == "" {
		return "", "", false
	}
	name, opts, _ = strings.Cut(tag, ",")
	return name, opts, name != ""
}

// typeName maps a Go type to its schema type name.
func typeName(t reflect.Type) string {
	if t == nil {
		return TypeAny
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(jsonUnmarshalerType) || t.Implements(jsonUnmarshalerType) {
		return TypeAny
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return TypeString
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeString
		}
		return TypeArray
	case reflect.Array:
		return TypeArray
	case reflect.Map:
		return TypeObject
	case reflect.Struct:
		if t.NumField() == 0 {
			return TypeNull
		}
		return TypeObject
	default:
		return TypeAny
	}
}
