package problem

import "net/http"

// registerBuiltins installs a per-type solver for InvalidRequestErrors,
// the one taxonomy member with a non-uniform wire shape (it carries a
// list of sub-errors rather than a single detail line).
func registerBuiltins(m *Mapper) {
	m.RegisterType(&InvalidRequestErrors{}, func(r *http.Request, err error) (Detail, http.Header) {
		ire := err.(*InvalidRequestErrors)
		return ire.ToDetail(), nil
	})
}
