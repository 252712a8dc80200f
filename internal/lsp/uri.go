package lsp

import (
	"net/url"
	"path/filepath"
)

// uriToPath maps a file:// URI (or a bare path) to an absolute local path.
// Other schemes (untitled:, git:) have no path and yield "".
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || uri == "" {
		return ""
	}
	var path string
	switch u.Scheme {
	case "file":
		path = u.Path
	case "":
		path = uri
	default:
		return ""
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
