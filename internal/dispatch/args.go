package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/migmoroni/vaudio/internal/registry"
)

// argsField names the whole argument payload in mismatch errors.
const argsField = "args"

// bindArgs validates raw against params and decodes it into target.
// raw may be absent or null (no arguments), an object (keyword arguments)
// or an array (positional arguments in declared order).
func bindArgs(params []registry.Param, target any, raw json.RawMessage) error {
	fields, err := splitArgs(params, bytes.TrimSpace(raw))
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(params))
	for _, p := range params {
		known[p.Name] = struct{}{}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := known[name]; !ok {
			return apperrors.WithField(name, "unknown argument", nil)
		}
	}

	for _, p := range params {
		v, ok := fields[p.Name]
		if ok && jsonType(v) == registry.TypeNull {
			delete(fields, p.Name)
			ok = false
		}
		if !ok {
			if p.Required {
				return apperrors.WithField(p.Name, fmt.Sprintf("missing required argument of type %s", p.Type), nil)
			}
			continue
		}
		if got := jsonType(v); !compatible(p.Type, got, v) {
			return apperrors.WithField(p.Name, fmt.Sprintf("expected %s, got %s", p.Type, got), nil)
		}
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return apperrors.WithField(argsField, "arguments are not valid JSON", err)
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.WithField(typeErr.Field, fmt.Sprintf("cannot decode %s into %s", typeErr.Value, typeErr.Type), err)
		}
		return apperrors.WithField(argsField, err.Error(), err)
	}
	return nil
}

func splitArgs(params []registry.Param, raw []byte) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	switch jsonType(raw) {
	case "", registry.TypeNull:
		return fields, nil
	case registry.TypeObject:
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, apperrors.WithField(argsField, "arguments are not a valid object", err)
		}
		return fields, nil
	case registry.TypeArray:
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, apperrors.WithField(argsField, "arguments are not a valid array", err)
		}
		if len(list) > len(params) {
			return nil, apperrors.WithField(fmt.Sprintf("%s[%d]", argsField, len(params)),
				fmt.Sprintf("expected at most %d positional arguments, got %d", len(params), len(list)), nil)
		}
		for i, v := range list {
			fields[params[i].Name] = v
		}
		return fields, nil
	default:
		return nil, apperrors.WithField(argsField, fmt.Sprintf("expected object or array, got %s", jsonType(raw)), nil)
	}
}

// jsonType reports the schema type of a raw JSON value from its first byte.
func jsonType(v []byte) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch c := v[0]; {
	case c == '{':
		return registry.TypeObject
	case c == '[':
		return registry.TypeArray
	case c == '"':
		return registry.TypeString
	case c == 't' || c == 'f':
		return registry.TypeBoolean
	case c == 'n':
		return registry.TypeNull
	case c == '-' || (c >= '0' && c <= '9'):
		return registry.TypeNumber
	default:
		return "invalid"
	}
}

func compatible(want, got string, v []byte) bool {
	switch want {
	case registry.TypeAny:
		return true
	case registry.TypeInteger:
		return got == registry.TypeNumber && !bytes.ContainsAny(v, ".eE")
	case registry.TypeNull:
		return got == registry.TypeObject
	default:
		return want == got
	}
}
