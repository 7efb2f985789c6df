package signature

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/corvid-http/corvid/pkg/paramrole"
	"github.com/corvid-http/corvid/pkg/typeinfo"
)

// walkFields applies the role-resolution rule table (spec.md §4.2) to
// every exported field of reqType, in declaration order, expanding
// structured Header/Cookie/Query/Path fields into one ParamDescriptor per
// sub-field ("param-pack expansion").
func (a *Analyzer) walkFields(sig *EndpointSignature, reqType reflect.Type, prefix []int, placeholders map[string]bool) error {
	for i := 0; i < reqType.NumField(); i++ {
		field := reqType.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		path := append(append([]int{}, prefix...), i)

		if err := a.classifyField(sig, field, path, placeholders); err != nil {
			return fmt.Errorf("signature: field %s: %w", field.Name, err)
		}
	}
	return nil
}

func (a *Analyzer) classifyField(sig *EndpointSignature, field reflect.StructField, path []int, placeholders map[string]bool) error {
	tag := parseTag(field.Tag.Get("corvid"))
	fieldType := field.Type

	// Rule 1: explicit Param marker (Path[T], Query[T], ... implement
	// paramrole.Marker via a zero value of the field's type).
	if marker, ok := reflect.Zero(fieldType).Interface().(paramrole.Marker); ok {
		return a.addExplicitRoleParam(sig, field, path, marker.ParamRole(), tag)
	}

	// Rule 2: parameter name matches a route path placeholder.
	kebab := toKebab(field.Name)
	if placeholders[kebab] || placeholders[field.Name] {
		return a.addSimpleParam(sig, &sig.PathParams, field, path, paramrole.Path, tag, kebab)
	}

	// Rule 3: registered dependency-graph factory.
	if a.Graph != nil && a.Graph.Lookup(fieldType) {
		desc, err := newDescriptor(field, path, tag, fieldType)
		if err != nil {
			return err
		}
		desc.Role = paramrole.Dependency
		sig.Dependencies = append(sig.Dependencies, desc)
		return nil
	}

	// Rule 4: framework primitive.
	if isPrimitive(fieldType) {
		desc, err := newDescriptor(field, path, tag, fieldType)
		if err != nil {
			return err
		}
		desc.Role = paramrole.Primitive
		sig.Primitives = append(sig.Primitives, desc)
		return nil
	}

	// Rule 5: registered plugin marker (only reachable if the field type
	// itself isn't a paramrole.Marker, i.e. non-generic plugin tag usage).
	if provider, ok := tag["plugin"]; ok && a.Plugins[provider] {
		desc, err := newDescriptor(field, path, tag, fieldType)
		if err != nil {
			return err
		}
		desc.Role = paramrole.Plugin
		sig.PluginParams = append(sig.PluginParams, desc)
		return nil
	}

	// Rule 6: structured type -> Body (methods admitting a body).
	desc, err := typeinfo.Analyze(fieldType, nil)
	if err != nil {
		return err
	}
	if desc.IsStructured && desc.StructuredKind == typeinfo.StructuredTaggedStruct {
		if sig.BodyParam != nil {
			return fmt.Errorf("endpoint already has a body parameter")
		}
		d, err := newDescriptor(field, path, tag, fieldType)
		if err != nil {
			return err
		}
		d.Role = paramrole.Body
		d.Required = true
		if err := attachBodyValidator(d, field.Name, fieldType); err != nil {
			return err
		}
		sig.BodyParam = d
		return nil
	}

	// Rule 7: else -> Query.
	return a.addSimpleParam(sig, &sig.QueryParams, field, path, paramrole.Query, tag, kebab)
}

// addExplicitRoleParam handles an explicit Path[T]/Query[T]/Header[T]/
// Cookie[T]/Body[T]/Form[T]/Plugin[T] wrapper field. Header/Cookie/Query/
// Path wrapping a tagged-struct is expanded field-by-field (param-pack
// expansion, spec.md §4.2).
func (a *Analyzer) addExplicitRoleParam(sig *EndpointSignature, field reflect.StructField, path []int, role paramrole.Role, tag map[string]string) error {
	// The wrapper's Value field holds the actual declared type. Binding
	// must reach into that Value field at request time, not the wrapper
	// struct itself, so every descriptor built here carries a FieldIndex
	// that walks path down through valueField's own index.
	valueField, ok := field.Type.FieldByName("Value")
	if !ok {
		return fmt.Errorf("marker type %s has no Value field", field.Type)
	}
	innerType := valueField.Type
	valuePath := append(append([]int{}, path...), valueField.Index...)

	switch role {
	case paramrole.Body:
		d, err := newDescriptor(field, valuePath, tag, innerType)
		if err != nil {
			return err
		}
		d.Role = paramrole.Body
		d.Required = true
		if err := attachBodyValidator(d, field.Name, innerType); err != nil {
			return err
		}
		if sig.BodyParam != nil {
			return fmt.Errorf("endpoint already has a body parameter")
		}
		sig.BodyParam = d
		return nil
	case paramrole.Form:
		return a.expandForm(sig, field, valuePath, innerType, tag)
	case paramrole.Path, paramrole.Query, paramrole.Header, paramrole.Cookie:
		desc, err := typeinfo.Analyze(innerType, nil)
		if err != nil {
			return err
		}
		if desc.IsStructured && desc.StructuredKind == typeinfo.StructuredTaggedStruct {
			return a.expandStructPack(sig, role, innerType, valuePath, tag)
		}
		target := destSliceFor(sig, role)
		return a.addSimpleParamTyped(sig, target, field, valuePath, innerType, role, tag, toKebab(field.Name))
	case paramrole.Plugin:
		d, err := newDescriptor(field, valuePath, tag, innerType)
		if err != nil {
			return err
		}
		d.Role = paramrole.Plugin
		sig.PluginParams = append(sig.PluginParams, d)
		return nil
	default:
		return fmt.Errorf("unsupported explicit role %s", role)
	}
}

func destSliceFor(sig *EndpointSignature, role paramrole.Role) *[]*ParamDescriptor {
	switch role {
	case paramrole.Path:
		return &sig.PathParams
	case paramrole.Query:
		return &sig.QueryParams
	default:
		return &sig.HeaderCookie
	}
}

// expandStructPack implements spec.md's "structured-body param-pack":
// each field of a Header/Cookie/Query/Path-tagged struct becomes an
// independent ParamDescriptor of the same role.
func (a *Analyzer) expandStructPack(sig *EndpointSignature, role paramrole.Role, structType reflect.Type, prefix []int, outerTag map[string]string) error {
	target := destSliceFor(sig, role)
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := parseTag(f.Tag.Get("corvid"))
		fieldPath := append(append([]int{}, prefix...), i)
		if err := a.addSimpleParam(sig, target, f, fieldPath, role, tag, toKebab(f.Name)); err != nil {
			return err
		}
	}
	return nil
}

// expandForm implements multipart/form-data field mapping: each field of
// the Form[T]-wrapped struct becomes a form field or, for *UploadFile
// fields, a File-role parameter.
func (a *Analyzer) expandForm(sig *EndpointSignature, field reflect.StructField, path []int, structType reflect.Type, outerTag map[string]string) error {
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := parseTag(f.Tag.Get("corvid"))
		fieldPath := append(append([]int{}, path...), i)
		d, err := newDescriptor(f, fieldPath, tag, f.Type)
		if err != nil {
			return err
		}
		if isUploadFileType(f.Type) || isUploadFileSliceType(f.Type) {
			d.Role = paramrole.File
		} else {
			d.Role = paramrole.Form
		}
		sig.FormParams = append(sig.FormParams, d)
	}
	return nil
}

func (a *Analyzer) addSimpleParam(sig *EndpointSignature, target *[]*ParamDescriptor, field reflect.StructField, path []int, role paramrole.Role, tag map[string]string, defaultKey string) error {
	return a.addSimpleParamTyped(sig, target, field, path, field.Type, role, tag, defaultKey)
}

// addSimpleParamTyped is addSimpleParam generalized to a declType distinct
// from field.Type — needed when field is an explicit marker wrapper
// (Path[T]/Query[T]/Header[T]/Cookie[T]) and the descriptor must classify
// and bind against the wrapper's inner Value type, not the wrapper itself.
func (a *Analyzer) addSimpleParamTyped(sig *EndpointSignature, target *[]*ParamDescriptor, field reflect.StructField, path []int, declType reflect.Type, role paramrole.Role, tag map[string]string, defaultKey string) error {
	d, err := newDescriptor(field, path, tag, declType)
	if err != nil {
		return err
	}
	d.Role = role
	if d.SourceKey == "" {
		d.SourceKey = defaultKey
	}
	*target = append(*target, d)
	return nil
}

// toKebab converts a Go exported field name into its kebab-case wire
// form, treating runs of consecutive uppercase letters (acronyms like
// ID, HTTP) as one word so "UserID" becomes "user-id", not "user-i-d".
func toKebab(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func parseTag(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			out[part[:eq]] = part[eq+1:]
		} else {
			out[part] = "true"
		}
	}
	return out
}
