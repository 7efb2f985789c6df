package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"reflect"
	"strconv"
	"strings"
)

// Decoder turns raw bytes (a request body) into a value assignable to a
// declared Go type. Grounded on the teacher's content-type dispatch in
// internal/web/request/parser.go, generalized from a fixed JSON-only
// decoder to a pluggable one keyed by the wrapper's declared content type.
type Decoder func(data []byte, target reflect.Type) (any, error)

// Validator runs after decoding, for structural validation beyond
// Constraints (e.g. required-field presence on a body struct).
type Validator func(value any) error

// jsonDecoder is the default Decoder for Body[T] parameters.
func jsonDecoder(data []byte, target reflect.Type) (any, error) {
	ptr := reflect.New(target)
	if len(data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(ptr.Interface()); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return ptr.Elem().Interface(), nil
}

// decoderForContentType resolves the declared Decoder for a Body[T]
// parameter's "content-type" tag. Only application/json is implemented
// today; expectedContentType records what the tag actually declared so
// pkg/endpoint can reject a request whose Content-Type header doesn't
// match before attempting to decode it, rather than silently decoding
// every body as JSON regardless of what was declared.
func decoderForContentType(contentType string) Decoder {
	return jsonDecoder
}

// expectedContentType normalizes a declared "content-type" tag value,
// defaulting to application/json when the tag is absent.
func expectedContentType(contentType string) string {
	if contentType == "" {
		return "application/json"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}

// ParseScalar coerces a raw textual value into target's Go kind. Exported
// for pkg/endpoint, which performs the actual binding of path/query/
// header/cookie parameters using the same coercion rules signature uses
// when validating declared defaults.
func ParseScalar(raw string, target reflect.Type) (any, error) {
	return parseScalar(raw, target)
}

// parseScalar coerces a raw textual parameter value (from a path segment,
// query string, header, or cookie) into target's Go kind. This is rule
// "scalar coercion" in the priority order: custom decoder > structural
// validator > scalar coercion > identity.
func parseScalar(raw string, target reflect.Type) (any, error) {
	switch target.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		return parseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	default:
		return nil, fmt.Errorf("cannot coerce %q into %s", raw, target)
	}
}

// parseBool recognizes the boolean-query-presence literals spec.md §4.2
// calls out (0/false/no deserialize false, alongside strconv's own
// true/false/1/0/t/f), rather than strconv.ParseBool's stricter set alone.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "no":
		return false, nil
	case "yes":
		return true, nil
	default:
		return strconv.ParseBool(raw)
	}
}
