package httpx

import (
	"errors"
	"net/http"

	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
)

// RespondError maps transport errors from the remote API onto gateway
// responses. ErrAuthRequired is deliberately absent here: the navigation
// middleware owns that redirect, so handlers receiving it just return
// without writing.
func RespondError(w http.ResponseWriter, err error) {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		// Redirect pending via the navigator; write nothing.
	case errors.As(err, &statusErr):
		Problem(w, http.StatusBadGateway, "Upstream Error", statusErr.Error())
	default:
		Problem(w, http.StatusBadGateway, "Upstream Unreachable", "")
	}
}
