package goferseo

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/goferseo/sitemap"
)

// RenderXML writes a rendered sitemap document with its status and content
// type.
func RenderXML(c echo.Context, res *sitemap.Response) error {
	return c.Blob(res.Status, res.ContentType, res.Body)
}

// RenderStatus writes a templ component with a specific HTTP status code
// and content type.
func RenderStatus(c echo.Context, code int, contentType string, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// RenderText writes plain text with a 200 status.
func RenderText(c echo.Context, text string) error {
	return RenderStatus(c, http.StatusOK, echo.MIMETextPlainCharsetUTF8, textComponent(text))
}

func textComponent(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}
