package source

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// rewritten lists, per element, the attributes holding a resource URL.
var rewritten = map[string][]string{
	"img":    {"src"},
	"source": {"src"},
	"video":  {"poster"},
	"link":   {"href"},
	"a":      {"href"},
}

// RewriteRelativePaths turns relative resource references of a full HTML
// document into file:// URLs under dir. References escaping dir are left
// as they are. An empty dir returns the document unchanged.
func RewriteRelativePaths(doc, dir string) (string, error) {
	if dir == "" {
		return doc, nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	rewrite(root, absDir)

	var buf strings.Builder
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func rewrite(n *html.Node, dir string) {
	if n.Type == html.ElementNode {
		for _, key := range rewritten[n.Data] {
			for i, attr := range n.Attr {
				if attr.Key != key || !isRelative(attr.Val) {
					continue
				}
				abs := filepath.Join(dir, attr.Val)
				if !within(abs, dir) {
					continue
				}
				n.Attr[i].Val = fileURL(abs)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewrite(c, dir)
	}
}

func isRelative(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false
	}
	return !filepath.IsAbs(ref)
}

func within(path, dir string) bool {
	dir = filepath.Clean(dir) + string(filepath.Separator)
	return strings.HasPrefix(filepath.Clean(path)+string(filepath.Separator), dir)
}

func fileURL(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
