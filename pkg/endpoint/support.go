package endpoint

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"

	"github.com/corvid-http/corvid/pkg/problem"
	"github.com/corvid-http/corvid/pkg/signature"
)

const maxBodyBytes = 10 << 20 // 10MB, matches the teacher's request.Parser default

func readBody(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, problem.NewPayloadTooLarge(mbe.Limit)
		}
		return nil, err
	}
	return data, nil
}

func parseScalarPublic(raw string, target reflect.Type) (any, error) {
	return signature.ParseScalar(raw, target)
}

// contentTypeMatches reports whether the request's actual Content-Type
// header (ignoring parameters like charset) matches a body param's
// declared expected media type.
func contentTypeMatches(actual, expected string) bool {
	mt, _, err := mime.ParseMediaType(actual)
	if err != nil {
		return false
	}
	return mt == expected
}

func encodeJSON(w io.Writer, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
