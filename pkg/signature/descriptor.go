package signature

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/corvid-http/corvid/pkg/typeinfo"
)

// newDescriptor builds the base ParamDescriptor for field at path, using
// declType as the type to run through typeinfo.Analyze (the wrapper's
// inner Value type for explicit markers, the field's own type otherwise).
// It parses the corvid struct tag into an alias, required flag,
// constraints, and multi-value flag.
func newDescriptor(field reflect.StructField, path []int, tag map[string]string, declType reflect.Type) (*ParamDescriptor, error) {
	metadata := metadataFromTag(tag)

	desc, err := typeinfo.Analyze(declType, metadata)
	if err != nil {
		return nil, err
	}

	d := &ParamDescriptor{
		Name:       field.Name,
		Type:       desc,
		FieldIndex: path,
		Required:   true,
		MultiValue: desc.IsSequence,
	}

	if alias, ok := tag["alias"]; ok {
		d.Alias = alias
		d.SourceKey = alias
	}
	if key, ok := tag["key"]; ok {
		d.SourceKey = key
	}
	if _, ok := tag["optional"]; ok {
		d.Required = false
	}
	if def, ok := tag["default"]; ok {
		d.Required = false
		d.HasDefault = true
		if v, err := parseScalar(def, declType); err == nil {
			d.Default = reflect.ValueOf(v)
		}
	}
	// A nullable (pointer-optional) declared type is never required.
	if desc.Nullable {
		d.Required = false
	}

	constraints, err := constraintsFromTag(tag)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field.Name, err)
	}
	d.Constraints = constraints
	d.Decoder = decoderForContentType(tag["content-type"])
	d.ContentType = expectedContentType(tag["content-type"])

	return d, nil
}

// attachBodyValidator wires a field-level Validator onto a Body-role
// descriptor. Only Body fields get this treatment: unlike Constraints
// (checked against the field's own value), a struct-field validator has
// to recurse into the declared type's fields, and framework primitive
// structs (*http.Request, with its Response.Request back-reference) are
// not safe to walk that way.
func attachBodyValidator(d *ParamDescriptor, fieldName string, declType reflect.Type) error {
	validator, err := validatorForType(declType)
	if err != nil {
		return fmt.Errorf("field %s: %w", fieldName, err)
	}
	d.Validator = validator
	return nil
}

func metadataFromTag(tag map[string]string) []typeinfo.Meta {
	var meta []typeinfo.Meta
	if alias, ok := tag["alias"]; ok {
		meta = append(meta, typeinfo.Meta{Kind: typeinfo.MetaAlias, Value: alias})
	}
	return meta
}

// constraintsFromTag parses the corvid tag's constraint predicates
// (spec.md §3) into a Constraints bag. A malformed pattern is a setup-time
// error — bad regexps fail loud at registration, not on the first request.
func constraintsFromTag(tag map[string]string) (Constraints, error) {
	var c Constraints
	if v, ok := tag["min_length"]; ok {
		c.MinLength = intPtr(v)
	}
	if v, ok := tag["max_length"]; ok {
		c.MaxLength = intPtr(v)
	}
	if v, ok := tag["min"]; ok {
		c.Min = floatPtr(v)
	}
	if v, ok := tag["max"]; ok {
		c.Max = floatPtr(v)
	}
	if v, ok := tag["gt"]; ok {
		c.Gt = floatPtr(v)
	}
	if v, ok := tag["ge"]; ok {
		c.Ge = floatPtr(v)
	}
	if v, ok := tag["lt"]; ok {
		c.Lt = floatPtr(v)
	}
	if v, ok := tag["le"]; ok {
		c.Le = floatPtr(v)
	}
	if v, ok := tag["pattern"]; ok {
		re, err := regexp.Compile(v)
		if err != nil {
			return Constraints{}, fmt.Errorf("invalid pattern %q: %w", v, err)
		}
		c.Pattern = re
	}
	if v, ok := tag["multiple_of"]; ok {
		c.MultipleOf = floatPtr(v)
	}
	if v, ok := tag["enum_of"]; ok {
		c.EnumOf = strings.Split(v, "|")
	}
	if v, ok := tag["min_items"]; ok {
		c.MinItems = intPtr(v)
	}
	if v, ok := tag["max_items"]; ok {
		c.MaxItems = intPtr(v)
	}
	if v, ok := tag["max_files"]; ok {
		c.MaxFiles = intPtr(v)
	}
	return c, nil
}

func intPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func floatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// uploadFileType is set by the corvid root package at init via
// RegisterUploadFileType, avoiding an import cycle (pkg/signature cannot
// import corvid, which imports pkg/signature).
var uploadFileType reflect.Type

// RegisterUploadFileType tells the signature package which concrete type
// represents an uploaded multipart file, for Form[T]/File-role detection.
func RegisterUploadFileType(t reflect.Type) {
	uploadFileType = t
}

func isUploadFileType(t reflect.Type) bool {
	return uploadFileType != nil && t == uploadFileType
}

func isUploadFileSliceType(t reflect.Type) bool {
	return uploadFileType != nil && t.Kind() == reflect.Slice && t.Elem() == uploadFileType
}
