package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders every failure,
// including router 404/405s and recovered panics, as the JSON error envelope.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := toHTTPError(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(httpErr.StatusCode)
		} else {
			err = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

func toHTTPError(err error) *HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		// Framework errors (unknown route, bad method, body too large) keep their status.
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "Internal server error"
		}
		return NewHTTPError(he.Code, msg, "")
	}
	return MapErrorToHTTP(err)
}
