package corvid

import (
	"reflect"

	"github.com/corvid-http/corvid/pkg/signature"
)

// init registers corvid's own framework-primitive types with
// pkg/signature, beyond the http.Request/http.ResponseWriter pair
// pkg/signature registers itself. Only *Scope qualifies: it is a value
// the endpoint runtime always has in hand at bind time with no
// application configuration. An *EventBus or *websocket.Conn a handler
// wants injected is registered as an ordinary dependency via
// Graph.Provide instead (role resolution rule 3 finds it there before
// rule 4 ever considers it a primitive).
func init() {
	signature.RegisterPrimitive(reflect.TypeOf((*Scope)(nil)))
	signature.RegisterUploadFileType(reflect.TypeOf((*UploadFile)(nil)))
}
