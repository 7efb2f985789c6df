package corvid

import "github.com/corvid-http/corvid/pkg/paramrole"

// Path marks a request struct field as sourced from a path template
// placeholder. The field's Go name (kebab-cased) is the default
// source_key unless overridden with a `corvid:"alias=..."` tag.
type Path[T any] struct{ Value T }

// Query marks a field as sourced from the URL query string. Sequence
// (slice) element types collect every occurrence, in wire order.
type Query[T any] struct{ Value T }

// Header marks a field as sourced from a request header, compared
// case-insensitively by alias (default: the kebab-cased field name).
type Header[T any] struct{ Value T }

// Cookie marks a field as sourced from the Cookie header.
type Cookie[T any] struct{ Value T }

// Body marks a field as the (sole) JSON/structured request body.
// At most one Body or Form field may appear per request struct.
type Body[T any] struct{ Value T }

// Form marks a field as the (sole) multipart/form-data body. Sibling
// fields of the wrapped struct type map one-to-one onto form parts;
// a field of type *UploadFile receives an uploaded file part.
type Form[T any] struct{ Value T }

// Plugin marks a field as populated by a named plugin provider rather
// than by request-source extraction or the dependency graph.
type Plugin[T any] struct {
	Value    T
	Provider string
}

// Get returns the extracted/decoded value. It is a convenience accessor
// so handlers can write req.Path.Get() instead of req.Path.Value.
func (p Path[T]) Get() T   { return p.Value }
func (q Query[T]) Get() T  { return q.Value }
func (h Header[T]) Get() T { return h.Value }
func (c Cookie[T]) Get() T { return c.Value }
func (b Body[T]) Get() T   { return b.Value }
func (f Form[T]) Get() T   { return f.Value }
func (p Plugin[T]) Get() T { return p.Value }

// ParamRole implements paramrole.Marker for each explicit wrapper type.
func (Path[T]) ParamRole() paramrole.Role   { return paramrole.Path }
func (Query[T]) ParamRole() paramrole.Role  { return paramrole.Query }
func (Header[T]) ParamRole() paramrole.Role { return paramrole.Header }
func (Cookie[T]) ParamRole() paramrole.Role { return paramrole.Cookie }
func (Body[T]) ParamRole() paramrole.Role   { return paramrole.Body }
func (Form[T]) ParamRole() paramrole.Role   { return paramrole.Form }
func (p Plugin[T]) ParamRole() paramrole.Role  { return paramrole.Plugin }
func (p Plugin[T]) ProviderName() string       { return p.Provider }
