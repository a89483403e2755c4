package sitemap

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StylesheetKind selects which document an XSL stylesheet formats.
type StylesheetKind string

const (
	StylesheetPage  StylesheetKind = "page"
	StylesheetIndex StylesheetKind = "index"
)

// StylesheetPath returns the virtual path of a family's stylesheet.
func StylesheetPath(f Family, kind StylesheetKind) string {
	if kind == StylesheetIndex {
		return "/" + f.Prefix() + "sitemap-index.xsl"
	}
	return "/" + f.Prefix() + "sitemap.xsl"
}

// StylesheetTitle is the human heading shown by a stylesheet.
func StylesheetTitle(f Family, kind StylesheetKind) string {
	words := []string{string(f), "sitemap"}
	if kind == StylesheetIndex {
		words = append(words, "index")
	}
	return cases.Title(language.English).String(strings.TrimSpace(strings.Join(words, " ")))
}

const xslIndexBody = `<table>
<tr><th>Sitemap</th><th>Last modified</th></tr>
<xsl:for-each select="sitemap:sitemapindex/sitemap:sitemap">
<tr>
<td><a href="{sitemap:loc}"><xsl:value-of select="sitemap:loc"/></a></td>
<td><xsl:value-of select="sitemap:lastmod"/></td>
</tr>
</xsl:for-each>
</table>`

const xslPageBody = `<p>URLs: <xsl:value-of select="count(sitemap:urlset/sitemap:url)"/></p>
<table>
<tr><th>URL</th><th>Images</th><th>Change frequency</th><th>Priority</th><th>Last modified</th></tr>
<xsl:for-each select="sitemap:urlset/sitemap:url">
<tr>
<td><a href="{sitemap:loc}"><xsl:value-of select="sitemap:loc"/></a></td>
<td><xsl:value-of select="count(image:image)"/></td>
<td><xsl:value-of select="sitemap:changefreq"/></td>
<td><xsl:value-of select="sitemap:priority"/></td>
<td><xsl:value-of select="sitemap:lastmod"/></td>
</tr>
</xsl:for-each>
</table>`

// Stylesheet renders the XSL document that formats a family's pages or index
// in a browser.
func (r *Renderer) Stylesheet(f Family, kind StylesheetKind) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		body := xslPageBody
		if kind == StylesheetIndex {
			body = xslIndexBody
		}
		title := html.EscapeString(StylesheetTitle(f, kind))
		_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<xsl:stylesheet version="2.0"
	xmlns:html="http://www.w3.org/TR/REC-html40"
	xmlns:sitemap="%s"
	xmlns:image="%s"
	xmlns:news="%s"
	xmlns:xsl="http://www.w3.org/1999/XSL/Transform">
<xsl:output method="html" version="1.0" encoding="UTF-8" indent="yes"/>
<xsl:template match="/">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>%s</p>
%s
</body>
</html>
</xsl:template>
</xsl:stylesheet>
`, nsSitemap, nsImage, nsNews, title, title, html.EscapeString(r.site.Name), body)
		return err
	})
}
