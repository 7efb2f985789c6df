// Package signature implements the signature parser described in
// spec.md §4.2: it walks a corvid handler's request struct fields (see
// SPEC_FULL.md §4.2 for why fields, not bare parameters — reflect
// cannot recover Go parameter names) and its return type, assigning each
// field a role, a decoder, a validator, and required/multi-value flags,
// then assembles the whole into an EndpointSignature.
package signature

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/corvid-http/corvid/pkg/di"
	"github.com/corvid-http/corvid/pkg/paramrole"
	"github.com/corvid-http/corvid/pkg/typeinfo"
)

// ParamDescriptor is one bound parameter, per spec.md §3.
type ParamDescriptor struct {
	Name       string
	Role       paramrole.Role
	SourceKey  string
	Alias      string
	Type       *typeinfo.Descriptor
	FieldIndex []int // reflect field path within the request struct
	HasDefault bool
	Default    reflect.Value
	Required   bool
	Constraints Constraints
	Decoder     Decoder
	ContentType string // declared media type a Body[T] param requires; empty for non-body params
	Validator   Validator
	MultiValue  bool
}

// EndpointSignature is the frozen, setup-time-computed description of one
// handler, per spec.md §3.
type EndpointSignature struct {
	RoutePath  string
	Method     string
	IsWebSocket bool

	PathParams    []*ParamDescriptor
	QueryParams   []*ParamDescriptor
	HeaderCookie  []*ParamDescriptor
	BodyParam     *ParamDescriptor
	FormParams    []*ParamDescriptor
	Dependencies  []*ParamDescriptor
	PluginParams  []*ParamDescriptor
	Primitives    []*ParamDescriptor

	RequestType reflect.Type
	ReturnType  reflect.Type
	Variants    []*ResponseVariant
	Scoped      bool

	HandlerValue reflect.Value
}

// AllParams returns every path, query, header/cookie, body and form
// parameter descriptor (not dependencies or primitives), in a
// stable order, for iteration during binding and error aggregation.
func (s *EndpointSignature) AllParams() []*ParamDescriptor {
	all := make([]*ParamDescriptor, 0, 16)
	all = append(all, s.PathParams...)
	all = append(all, s.QueryParams...)
	all = append(all, s.HeaderCookie...)
	if s.BodyParam != nil {
		all = append(all, s.BodyParam)
	}
	all = append(all, s.FormParams...)
	return all
}

// DependencyTypes returns the reflect.Type of every Dependency-role field,
// for pkg/di.Compile.
func (s *EndpointSignature) DependencyTypes() []reflect.Type {
	types := make([]reflect.Type, len(s.Dependencies))
	for i, d := range s.Dependencies {
		types[i] = s.RequestType.FieldByIndex(d.FieldIndex).Type
	}
	return types
}

// Analyzer parses handler signatures against a fixed route path template,
// method, and dependency graph (used to classify Dependency-role fields
// per spec.md §4.2 rule 3).
type Analyzer struct {
	Graph *di.Graph
	// Plugins is the set of registered plugin provider names, used for
	// rule 5 (registered plugin marker).
	Plugins map[string]bool
}

// NewAnalyzer creates a signature analyzer bound to a dependency graph.
func NewAnalyzer(graph *di.Graph) *Analyzer {
	return &Analyzer{Graph: graph, Plugins: make(map[string]bool)}
}

// primitiveTypes is the closed set of framework-primitive types
// recognized by role-resolution rule 4.
var primitiveTypes = map[reflect.Type]bool{
	reflect.TypeOf((*http.Request)(nil)):        true,
	reflect.TypeOf((*http.ResponseWriter)(nil)).Elem(): true,
}

// RegisterPrimitive extends the primitive-type set (used for corvid's
// *Scope and *UploadFile primitives, registered by the corvid root
// package at init to avoid an import cycle).
func RegisterPrimitive(t reflect.Type) {
	primitiveTypes[t] = true
}

func isPrimitive(t reflect.Type) bool {
	return primitiveTypes[t]
}

// Analyze parses handler (a func(context.Context, Req) (Resp, error))
// into an EndpointSignature for routePath/method.
func (a *Analyzer) Analyze(routePath, method string, handler any) (*EndpointSignature, error) {
	hv := reflect.ValueOf(handler)
	ht := hv.Type()
	if ht.Kind() != reflect.Func {
		return nil, fmt.Errorf("signature: handler must be a function, got %s", ht)
	}
	if ht.NumIn() != 2 || ht.NumOut() != 2 {
		return nil, fmt.Errorf("signature: handler must be func(context.Context, Req) (Resp, error), got %s", ht)
	}
	if !ht.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("signature: handler's second return value must be error")
	}

	reqType := ht.In(1)
	if reqType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("signature: handler's request parameter must be a struct, got %s", reqType)
	}

	sig := &EndpointSignature{
		RoutePath:    routePath,
		Method:       method,
		IsWebSocket:  method == "UPGRADE",
		RequestType:  reqType,
		ReturnType:   ht.Out(0),
		HandlerValue: hv,
	}

	pathPlaceholders := extractPlaceholders(routePath)

	if err := a.walkFields(sig, reqType, nil, pathPlaceholders); err != nil {
		return nil, err
	}

	if sig.BodyParam != nil && len(sig.FormParams) > 0 {
		return nil, fmt.Errorf("signature: endpoint has both a Body and a Form parameter; at most one is allowed")
	}
	if sig.IsWebSocket && (sig.BodyParam != nil || len(sig.FormParams) > 0) {
		return nil, fmt.Errorf("signature: websocket endpoints cannot declare a Body or Form parameter")
	}

	variants, err := analyzeReturn(sig.ReturnType)
	if err != nil {
		return nil, err
	}
	sig.Variants = variants

	return sig, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func extractPlaceholders(routePath string) map[string]bool {
	set := make(map[string]bool)
	for _, seg := range strings.Split(routePath, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			name = strings.TrimSuffix(name, "...") // wildcard suffix, chi convention
			set[name] = true
		}
	}
	return set
}
