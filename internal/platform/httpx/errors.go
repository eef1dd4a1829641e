package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the JSON API. Wrap them with fmt.Errorf("%w: detail") so
// the detail reaches the client.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrUpstream    = errors.New("upstream unavailable")
	ErrUnavailable = errors.New("service unavailable")
)

var problemKinds = []struct {
	err    error
	status int
	title  string
}{
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrUpstream, http.StatusBadGateway, "Bad Gateway"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// RespondError writes err as problem details. Errors outside the sentinel set
// become a 500 without detail.
func RespondError(w http.ResponseWriter, err error) {
	for _, kind := range problemKinds {
		if errors.Is(err, kind.err) {
			Problem(w, kind.status, kind.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
