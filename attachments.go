package goferseo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
	uploadsPath   = "/uploads/"
)

// Attachment describes an uploaded image.
type Attachment struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

// processImage decodes an image from src, shrinks it to maxImageWidth and
// encodes it as JPEG.
func processImage(src io.Reader) (w, h int, data []byte, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return 0, 0, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return w, h, buf.Bytes(), nil
}

// uniqueFilename appends a counter until the name is free in dir.
func uniqueFilename(dir, originalName string) string {
	base := Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	candidate := base + ".jpg"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

// handleAdminUpload stores an image under the uploads directory and records
// it as an attachment. Content references it as <img class="wp-image-ID">.
func (a *App) handleAdminUpload(c echo.Context) error {
	dir := a.Config.UploadsDir
	if dir == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "uploads_dir is not configured")
	}
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	w, h, data, err := processImage(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	name := uniqueFilename(dir, file.Filename)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	att := Attachment{
		URL:      strings.TrimRight(a.Config.URL, "/") + uploadsPath + name,
		Filename: name,
		Width:    w,
		Height:   h,
		Size:     len(data),
	}
	att.ID, err = a.Store.CreatePost(c.Request().Context(), Post{
		Type:  "attachment",
		Slug:  strings.TrimSuffix(name, ".jpg"),
		Title: file.Filename,
		GUID:  att.URL,
	})
	if err != nil {
		os.Remove(filepath.Join(dir, name))
		return err
	}
	a.Logger.Info("attachment uploaded", "id", att.ID, "file", name, "width", w, "height", h)
	return c.JSON(http.StatusCreated, att)
}
