// Package endpoint implements the endpoint runtime described in
// spec.md §4.4/§4.5: for every request it resolves a per-request scope
// from the dependency graph, binds each declared parameter from its
// source per its signature.EndpointSignature, invokes the plugin chain
// around the handler, encodes the result, and closes the scope's exit
// stack before the response is finalized — in that order, regardless of
// whether the handler returned a value or an error. Grounded on the
// teacher's internal/web/request (parsing) and internal/web/response
// (error/stream encoding) packages, generalized from ad hoc per-handler
// parsing to signature-driven binding.
package endpoint

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/corvid-http/corvid/pkg/di"
	"github.com/corvid-http/corvid/pkg/paramrole"
	"github.com/corvid-http/corvid/pkg/plugin"
	"github.com/corvid-http/corvid/pkg/problem"
	"github.com/corvid-http/corvid/pkg/router"
	"github.com/corvid-http/corvid/pkg/signature"
	"github.com/corvid-http/corvid/pkg/sse"
	"go.uber.org/zap"
)

// Endpoint binds one EndpointSignature to a live dependency graph and
// plugin chain, producing the http.HandlerFunc the router dispatches to.
type Endpoint struct {
	Sig     *signature.EndpointSignature
	Graph   *di.Graph
	Plan    *di.Plan
	Plugins []plugin.Plugin
	Mapper  *problem.Mapper
	Logger  *zap.Logger
}

// NewEndpoint compiles sig's dependency plan against graph and returns a
// ready-to-serve Endpoint. Compilation happens once, at route
// registration time, per spec.md §3's "topologically sort... once per
// endpoint signature".
func NewEndpoint(sig *signature.EndpointSignature, graph *di.Graph, plugins []plugin.Plugin, mapper *problem.Mapper, logger *zap.Logger) (*Endpoint, error) {
	plan, err := graph.Compile(sig.DependencyTypes(), sig.Scoped)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Endpoint{Sig: sig, Graph: graph, Plan: plan, Plugins: plugins, Mapper: mapper, Logger: logger}, nil
}

// Handler returns the http.HandlerFunc the router registers for this
// endpoint.
func (e *Endpoint) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.serve(w, r)
	}
}

func (e *Endpoint) serve(w http.ResponseWriter, r *http.Request) {
	ctx := plugin.WithHTTP(r.Context(), w, r)

	scope := e.Graph.NewScope(ctx, e.Logger)

	deps, err := scope.Resolve(e.Plan)
	if err != nil {
		scope.Close()
		e.writeError(w, r, err)
		return
	}

	reqValue := reflect.New(e.Sig.RequestType).Elem()

	var ire problem.InvalidRequestErrors
	if err := e.bindAll(ctx, r, scope, deps, reqValue, &ire); err != nil {
		scope.Close()
		e.writeError(w, r, err)
		return
	}
	if ire.HasErrors() {
		scope.Close()
		e.writeError(w, r, &ire)
		return
	}

	info := plugin.EndpointInfo{RoutePath: e.Sig.RoutePath, Method: e.Sig.Method, IsWebSocket: e.Sig.IsWebSocket}
	terminal := e.terminalHandler()
	chained := plugin.Chain(info, e.Plugins, terminal)

	result, err := chained(ctx, reqValue.Interface())
	// The handler and every plugin ahead of it has returned by now, so
	// every scoped dependency it needed has already been used. Close the
	// scope here rather than deferring it to serve's own return: an SSE
	// return keeps writeResult running for as long as the stream stays
	// open, and scoped resources (a pooled connection, a lock) shouldn't
	// sit held for the life of a stream they're no longer used for.
	scope.Close()
	if err != nil {
		if err == plugin.ErrShortCircuited {
			return
		}
		e.writeError(w, r, err)
		return
	}

	e.writeResult(w, r, result)
}

// terminalHandler adapts the signature's reflect.Value handler function
// into a plugin.Handler.
func (e *Endpoint) terminalHandler() plugin.Handler {
	return func(ctx context.Context, req any) (any, error) {
		in := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(req)}
		out := e.Sig.HandlerValue.Call(in)
		resp := out[0].Interface()
		errVal := out[1].Interface()
		if errVal != nil {
			return nil, errVal.(error)
		}
		return resp, nil
	}
}

// bindAll binds every declared parameter into reqValue, aggregating
// every binding failure into ire rather than stopping at the first
// (spec.md §4.6's "as many validation problems as possible in one
// response"). A non-nil return short-circuits binding entirely: it's
// reserved for failures the InvalidRequestErrors 422 taxonomy can't
// represent (a mismatched Content-Type or an oversized body each carry
// their own status code).
func (e *Endpoint) bindAll(ctx context.Context, r *http.Request, scope *di.Scope, deps map[di.Key]reflect.Value, reqValue reflect.Value, ire *problem.InvalidRequestErrors) error {
	for _, p := range e.Sig.PathParams {
		e.bindTextual(reqValue, p, router.PathParam(r, textualKey(p)), true, ire)
	}
	for _, p := range e.Sig.QueryParams {
		values := r.URL.Query()[textualKey(p)]
		e.bindMultiTextual(reqValue, p, values, ire)
	}
	for _, p := range e.Sig.HeaderCookie {
		e.bindHeaderOrCookie(r, reqValue, p, ire)
	}
	if e.Sig.BodyParam != nil {
		if err := e.bindBody(r, reqValue, e.Sig.BodyParam, ire); err != nil {
			return err
		}
	}
	if len(e.Sig.FormParams) > 0 {
		e.bindForm(r, reqValue, ire)
	}
	for _, p := range e.Sig.Dependencies {
		e.bindDependency(deps, reqValue, p, ire)
	}
	for _, p := range e.Sig.Primitives {
		e.bindPrimitive(w(ctx), r, scope, reqValue, p)
	}
	return nil
}

// w recovers the ResponseWriter stashed on ctx, for primitive binding.
func w(ctx context.Context) http.ResponseWriter {
	return plugin.HTTPResponseWriter(ctx)
}

func textualKey(p *signature.ParamDescriptor) string {
	if p.SourceKey != "" {
		return p.SourceKey
	}
	return p.Name
}

func (e *Endpoint) bindTextual(reqValue reflect.Value, p *signature.ParamDescriptor, raw string, always bool, ire *problem.InvalidRequestErrors) {
	if raw == "" && !p.Required && !always {
		e.applyDefault(reqValue, p)
		return
	}
	if raw == "" {
		if p.HasDefault {
			e.applyDefault(reqValue, p)
			return
		}
		if p.Required {
			ire.Add("MissingRequestParam", p.Role.Location(), textualKey(p), "required")
			return
		}
		return
	}
	e.decodeTextualInto(reqValue, p, raw, ire)
}

func (e *Endpoint) bindMultiTextual(reqValue reflect.Value, p *signature.ParamDescriptor, values []string, ire *problem.InvalidRequestErrors) {
	if len(values) == 0 {
		if p.HasDefault {
			e.applyDefault(reqValue, p)
			return
		}
		if p.Required {
			ire.Add("MissingRequestParam", p.Role.Location(), textualKey(p), "required")
			return
		}
		return
	}
	if p.MultiValue {
		field := fieldAt(reqValue, p.FieldIndex)
		elemType := field.Type().Elem()
		out := reflect.MakeSlice(field.Type(), 0, len(values))
		for _, raw := range values {
			v, err := parseOrCheck(p, raw, elemType)
			if err != nil {
				ire.Add("InvalidParamValue", p.Role.Location(), textualKey(p), err.Error())
				return
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		field.Set(out)
		return
	}
	e.decodeTextualInto(reqValue, p, values[0], ire)
}

func (e *Endpoint) decodeTextualInto(reqValue reflect.Value, p *signature.ParamDescriptor, raw string, ire *problem.InvalidRequestErrors) {
	field := fieldAt(reqValue, p.FieldIndex)
	target := field.Type()
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	v, err := parseOrCheck(p, raw, target)
	if err != nil {
		ire.Add("InvalidParamValue", p.Role.Location(), textualKey(p), err.Error())
		return
	}
	assignScalar(field, v)
}

func parseOrCheck(p *signature.ParamDescriptor, raw string, target reflect.Type) (any, error) {
	v, err := parseScalarPublic(raw, target)
	if err != nil {
		return nil, err
	}
	if violations := p.Constraints.Check(v); len(violations) > 0 {
		return nil, joinViolations(violations)
	}
	return v, nil
}

func (e *Endpoint) applyDefault(reqValue reflect.Value, p *signature.ParamDescriptor) {
	if !p.HasDefault {
		return
	}
	field := fieldAt(reqValue, p.FieldIndex)
	field.Set(p.Default.Convert(field.Type()))
}

// bindHeaderOrCookie reads every occurrence of a header or cookie by key,
// per spec.md §4.4.3's "collect all values for sequence types": a
// MultiValue param (e.g. Header[[]string]) is routed through the same
// multi-value collector query params use, so repeated "x-token" header
// lines bind to one []string rather than only the first occurrence.
func (e *Endpoint) bindHeaderOrCookie(r *http.Request, reqValue reflect.Value, p *signature.ParamDescriptor, ire *problem.InvalidRequestErrors) {
	var values []string
	switch p.Role {
	case paramrole.Header:
		values = r.Header.Values(textualKey(p))
	case paramrole.Cookie:
		for _, c := range r.Cookies() {
			if c.Name == textualKey(p) {
				values = append(values, c.Value)
			}
		}
	}

	if p.MultiValue {
		e.bindMultiTextual(reqValue, p, values, ire)
		return
	}

	var raw string
	if len(values) > 0 {
		raw = values[0]
	}
	e.bindTextual(reqValue, p, raw, false, ire)
}

// bindBody decodes the request body into p's field. A Content-Type
// mismatch or an oversized body returns an error directly (each carries
// its own status code, outside the 422 InvalidRequestErrors taxonomy);
// a malformed or constraint-violating body is added to ire instead.
func (e *Endpoint) bindBody(r *http.Request, reqValue reflect.Value, p *signature.ParamDescriptor, ire *problem.InvalidRequestErrors) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !contentTypeMatches(ct, p.ContentType) {
		return problem.NewUnsupportedMediaType(ct)
	}

	data, err := readBody(r)
	if err != nil {
		if hp, ok := err.(problem.HTTPProblem); ok {
			return hp
		}
		ire.Add("InvalidJsonReceived", "body", "", err.Error())
		return nil
	}
	target := p.Type.Base
	value, err := p.Decoder(data, target)
	if err != nil {
		ire.Add("InvalidJsonReceived", "body", "", err.Error())
		return nil
	}
	if violations := p.Constraints.Check(value); len(violations) > 0 {
		ire.Add("InvalidParamValue", "body", "", joinViolations(violations).Error())
		return nil
	}
	if p.Validator != nil {
		if err := p.Validator(value); err != nil {
			var ve *signature.ValidationError
			if errors.As(err, &ve) {
				for _, v := range ve.Violations {
					ire.Add("InvalidParamValue", "body", v.Param, v.Message)
				}
			} else {
				ire.Add("InvalidParamValue", "body", "", err.Error())
			}
			return nil
		}
	}
	field := fieldAt(reqValue, p.FieldIndex)
	field.Set(reflect.ValueOf(value))
	return nil
}

func (e *Endpoint) bindForm(r *http.Request, reqValue reflect.Value, ire *problem.InvalidRequestErrors) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if err2 := r.ParseForm(); err2 != nil {
			ire.Add("InvalidFormError", "form", "", err.Error())
			return
		}
	}
	for _, p := range e.Sig.FormParams {
		if p.Role == paramrole.File {
			e.bindFile(r, reqValue, p, ire)
			continue
		}
		raw := r.FormValue(textualKey(p))
		e.bindTextual(reqValue, p, raw, false, ire)
	}
}

func (e *Endpoint) bindFile(r *http.Request, reqValue reflect.Value, p *signature.ParamDescriptor, ire *problem.InvalidRequestErrors) {
	if r.MultipartForm == nil {
		if p.Required {
			ire.Add("MissingRequestParam", "form", textualKey(p), "required file")
		}
		return
	}
	headers := r.MultipartForm.File[textualKey(p)]
	if len(headers) == 0 {
		if p.Required {
			ire.Add("MissingRequestParam", "form", textualKey(p), "required file")
		}
		return
	}
	if p.Constraints.MaxFiles != nil && len(headers) > *p.Constraints.MaxFiles {
		ire.Add("InvalidParamValue", "form", textualKey(p), "too many files")
		return
	}

	field := fieldAt(reqValue, p.FieldIndex)
	if field.Kind() == reflect.Slice {
		out := reflect.MakeSlice(field.Type(), 0, len(headers))
		for _, h := range headers {
			out = reflect.Append(out, reflect.ValueOf(newUploadFile(h)))
		}
		field.Set(out)
		return
	}
	field.Set(reflect.ValueOf(newUploadFile(headers[0])))
}

func (e *Endpoint) bindDependency(deps map[di.Key]reflect.Value, reqValue reflect.Value, p *signature.ParamDescriptor, ire *problem.InvalidRequestErrors) {
	field := fieldAt(reqValue, p.FieldIndex)
	value, ok := deps[di.Key{Type: field.Type()}]
	if !ok {
		ire.Add("InvalidParamValue", "dependency", p.Name, "no provider registered")
		return
	}
	field.Set(value)
}

func (e *Endpoint) bindPrimitive(w http.ResponseWriter, r *http.Request, scope *di.Scope, reqValue reflect.Value, p *signature.ParamDescriptor) {
	field := fieldAt(reqValue, p.FieldIndex)
	switch {
	case field.Type() == reflect.TypeOf((*http.Request)(nil)):
		field.Set(reflect.ValueOf(r))
	case field.Type().Kind() == reflect.Interface && field.Type().Implements(reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()):
		field.Set(reflect.ValueOf(w))
	case field.Type() == reflect.TypeOf((*di.Scope)(nil)):
		field.Set(reflect.ValueOf(scope))
	}
}

func fieldAt(v reflect.Value, index []int) reflect.Value {
	return v.FieldByIndex(index)
}

func assignScalar(field reflect.Value, v any) {
	rv := reflect.ValueOf(v)
	if field.Type().Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		ptr.Elem().Set(rv.Convert(field.Type().Elem()))
		field.Set(ptr)
		return
	}
	field.Set(rv.Convert(field.Type()))
}

func (e *Endpoint) writeError(w http.ResponseWriter, r *http.Request, err error) {
	detail, headers := e.Mapper.Solve(r, err)
	problem.WriteHeaders(w, headers)
	problem.WriteJSON(w, detail)
}

// unionValue is implemented by corvid.Union[A, B]; writeResult uses it to
// unwrap a Union return value down to the arm the handler actually
// returned, without importing the root package (the same import-cycle
// concern typeinfo.Unioner works around for pkg/signature).
type unionValue interface {
	Get() (any, int)
}

// writeResult encodes a handler's return value per its declared response
// variant(s) (pkg/signature/return.go's analyzeReturn), rather than
// assuming every handler returns a plain JSON 200 body: a single-variant
// Empty return sends 204 with no body, a single-variant SSE return hands
// off to the streaming writer, and a Union return is unwrapped to the arm
// actually produced before its status code and body are resolved.
func (e *Endpoint) writeResult(w http.ResponseWriter, r *http.Request, result any) {
	if len(e.Sig.Variants) == 1 {
		variant := e.Sig.Variants[0]
		if variant.IsEmpty {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if variant.IsSSE {
			e.writeSSE(w, reflect.ValueOf(result))
			return
		}
		status, body := resolveStatus(variant.StatusCode, result)
		writeJSONBody(w, status, body)
		return
	}

	if uv, ok := result.(unionValue); ok {
		value, tag := uv.Get()
		variant := e.Sig.Variants[0]
		if tag >= 1 && tag <= len(e.Sig.Variants) {
			variant = e.Sig.Variants[tag-1]
		}
		status, body := resolveStatus(variant.StatusCode, value)
		writeJSONBody(w, status, body)
		return
	}

	writeJSONBody(w, http.StatusOK, result)
}

// resolveStatus reads the runtime status code out of a corvid.Status[T]
// value (its declared type is only known as a struct with Code/Value
// fields at signature-analysis time; the actual code lives on the value,
// not the type). Any other shape keeps the variant's declared code.
func resolveStatus(declared int, value any) (int, any) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Struct {
		code := rv.FieldByName("Code")
		val := rv.FieldByName("Value")
		if code.IsValid() && code.Kind() == reflect.Int && val.IsValid() {
			return int(code.Int()), val.Interface()
		}
	}
	return declared, value
}

// writeSSE drives an SSE-shaped return value (func(func(sse.Event) bool),
// possibly under a named type like a Go 1.23 iter.Seq[sse.Event] alias)
// via reflection, since its concrete type isn't known until request time.
func (e *Endpoint) writeSSE(w http.ResponseWriter, seqValue reflect.Value) {
	if seqValue.Kind() != reflect.Func || seqValue.IsNil() {
		e.writeError(w, nil, problem.NewInternal("sse handler returned no sequence"))
		return
	}
	writer, err := sse.NewWriter(w)
	if err != nil {
		e.writeError(w, nil, err)
		return
	}
	yieldType := seqValue.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		ev, _ := args[0].Interface().(sse.Event)
		cont := writer.WriteEvent(ev) == nil
		return []reflect.Value{reflect.ValueOf(cont)}
	})
	seqValue.Call([]reflect.Value{yield})
}

func writeJSONBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encodeJSON(w, v)
}

func joinViolations(violations []string) error {
	msg := violations[0]
	for _, v := range violations[1:] {
		msg += "; " + v
	}
	return &violationError{msg: msg}
}

type violationError struct{ msg string }

func (e *violationError) Error() string { return e.msg }
