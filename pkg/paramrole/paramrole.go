// Package paramrole defines the closed set of parameter roles a request
// struct field can be classified into, and the Marker interface corvid's
// Path/Query/Header/Cookie/Body/Form/Plugin wrapper types implement.
//
// This lives in its own package specifically so pkg/signature can
// classify a field's role by asking "does this type implement
// paramrole.Marker" without importing the corvid package — which itself
// needs to import pkg/signature to offer route registration. Marker is
// the seam that breaks that would-be import cycle.
package paramrole

// Role is the source slot a parameter is extracted from, per the closed
// set: Path, Query, Header, Cookie, Body, Form, File, Dependency,
// Plugin, Primitive, Transitive.
type Role int

const (
	Path Role = iota
	Query
	Header
	Cookie
	Body
	Form
	File
	Dependency
	Plugin
	Primitive
	Transitive
)

func (r Role) String() string {
	switch r {
	case Path:
		return "path"
	case Query:
		return "query"
	case Header:
		return "header"
	case Cookie:
		return "cookie"
	case Body:
		return "body"
	case Form:
		return "form"
	case File:
		return "file"
	case Dependency:
		return "dependency"
	case Plugin:
		return "plugin"
	case Primitive:
		return "primitive"
	case Transitive:
		return "transitive"
	default:
		return "unknown"
	}
}

// Location is the subset of roles that can appear as a validation-error
// location per spec.md §4.6.
func (r Role) Location() string {
	switch r {
	case Path, Query, Header, Cookie, Body, Form:
		return r.String()
	default:
		return ""
	}
}

// Marker is implemented by an explicit Param wrapper type (corvid.Path[T]
// and friends) so pkg/signature's role-resolution rule 1 ("if annotated
// with an explicit Param(role, ...) marker, use that role") can be
// applied without a concrete dependency on the corvid package.
type Marker interface {
	ParamRole() Role
}

// ProviderNamed is implemented by corvid.Plugin[T] to carry the plugin
// provider name alongside its role.
type ProviderNamed interface {
	Marker
	ProviderName() string
}
