package corvid

import "github.com/corvid-http/corvid/pkg/di"

// Scope is the live per-request resolver a handler can declare as a
// Primitive-role field to register its own exit callbacks (e.g. to defer
// a cleanup action until after the response is sent), per spec.md §4.3's
// "a user may register additional exit callbacks via an injected scope
// handle".
type Scope = di.Scope
