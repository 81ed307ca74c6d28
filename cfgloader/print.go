package cfgloader

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

const maskedValue = "********"

func printConfig(path string, config any) {
	out, err := yaml.Marshal(flatten(reflect.ValueOf(config), ""))
	if err != nil {
		slog.Error("[cfgloader]: failed to marshal config", "error", err.Error())
		return
	}
	slog.Info(fmt.Sprintf("[cfgloader]: loaded config from %q:\n%s", path, string(out)))
}

// flatten lists the exported fields of a struct under dotted yaml names in
// declaration order. Non-zero values of fields tagged mask:"true" are replaced.
func flatten(val reflect.Value, prefix string) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()

	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			om.Set(prefix, nil)
			return om
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		om.Set(prefix, val.Interface())
		return om
	}

	typ := val.Type()
	for i := range val.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name, skip := fieldName(field)
		if skip {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		fv := val.Field(i)
		switch {
		case strings.EqualFold(field.Tag.Get("mask"), "true"):
			if fv.IsZero() {
				om.Set(name, fv.Interface())
			} else {
				om.Set(name, maskedValue)
			}
		case isStruct(fv):
			nested := flatten(fv, name)
			for pair := nested.Oldest(); pair != nil; pair = pair.Next() {
				om.Set(pair.Key, pair.Value)
			}
		default:
			om.Set(name, fv.Interface())
		}
	}

	return om
}

func isStruct(val reflect.Value) bool {
	if val.Kind() == reflect.Pointer {
		return !val.IsNil() && val.Elem().Kind() == reflect.Struct
	}
	return val.Kind() == reflect.Struct && val.Type().PkgPath() != "time"
}

func fieldName(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("yaml")
	if !ok {
		return field.Name, false
	}
	if tag == "-" {
		return "", true
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name, false
	}
	return name, false
}
