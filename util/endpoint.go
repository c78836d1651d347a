package util

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// GenerateEndpoint appends params to host as a query string. Scalars
// become key=value; slices and arrays become one key[]=value pair per
// element. Values are percent-encoded like encodeURIComponent: spaces
// become %20 and !'()* stay literal. Keys are used
// verbatim and emitted in sorted order. Nil values and empty slices are
// skipped. host is returned unchanged when nothing remains.
func GenerateEndpoint(host string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		value := params[key]
		if value == nil {
			continue
		}
		rv := reflect.ValueOf(value)
		if (rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8) || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				parts = append(parts, key+"[]="+escape(rv.Index(i).Interface()))
			}
			continue
		}
		parts = append(parts, key+"="+escape(value))
	}

	if len(parts) == 0 {
		return host
	}
	sep := "?"
	if strings.Contains(host, "?") {
		sep = "&"
	}
	return host + sep + strings.Join(parts, "&")
}

func escape(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// componentUnescaper turns url.QueryEscape output into the
// encodeURIComponent form. A literal '+' is already %2B at this point.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
