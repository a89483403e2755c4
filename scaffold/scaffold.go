// Package scaffold writes the starter configuration of a goferseo site: a
// config.yaml and the host robots.txt it points at.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

const root = "templates"

// ErrExists is returned when a target file exists and force is off.
var ErrExists = errors.New("scaffold: file already exists")

// Data holds the template variables passed to every scaffold template.
type Data struct {
	SiteName string
	SiteURL  string
	Dir      string // directory the files are written to
	DataDir  string // directory of the SQLite database
}

// Write renders every template into data.Dir and returns the created paths.
// Existing files are left alone unless force is set.
func Write(data Data, force bool) ([]string, error) {
	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(data.Dir, relPath), ".tmpl")
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if !force {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, outPath)
			}
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		created = append(created, outPath)
		return nil
	})
	return created, err
}
