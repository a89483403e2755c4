package goferseo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleRobots(c echo.Context) error {
	text, err := a.Robots.Build(c.Request().Context(), true)
	if err != nil {
		return err
	}
	return RenderText(c, text)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		_ = c.String(code, http.StatusText(code))
		return
	}
	if code == http.StatusNotFound {
		_ = c.String(code, http.StatusText(code))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
