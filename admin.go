package goferseo

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/goferseo/content"
)

type transitionRequest struct {
	Status string `json:"status" form:"status"`
}

func handleAdminCSRF(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"token": csrfToken(c)})
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many login attempts, try again later"})
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid password"})
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminTransition(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ev, err := a.TransitionPost(c.Request().Context(), id, content.Status(req.Status))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	case errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":   ev.ID,
		"kind": ev.Kind,
		"from": ev.OldStatus,
		"to":   ev.NewStatus,
	})
}

// handleAdminRobots previews robots.txt; ?filters=0 shows the host output.
func (a *App) handleAdminRobots(c echo.Context) error {
	text, err := a.Robots.Build(c.Request().Context(), c.QueryParam("filters") != "0")
	if err != nil {
		return err
	}
	return RenderText(c, text)
}

func (a *App) handleAdminRobotsFlush(c echo.Context) error {
	a.Robots.Flush()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminBlockLog(c echo.Context) error {
	text, err := a.BlockLog.Text()
	if err != nil {
		return err
	}
	return RenderText(c, text)
}

func (a *App) handleAdminBlockLogClear(c echo.Context) error {
	if err := a.BlockLog.Clear(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
