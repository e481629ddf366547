// Package urlmap translates between filesystem paths rooted at a project
// directory and the canonical URLs used to key the dependency graph and the
// file store. The mapping is deterministic and bidirectional: the same path
// always yields the same URL for the duration of a build.
package urlmap

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// OutOfRootError reports a path or URL that resolves outside the project root.
type OutOfRootError struct {
	Root string
	Path string
}

func (e *OutOfRootError) Error() string {
	return fmt.Sprintf("path %q escapes project root %q", e.Path, e.Root)
}

// PathToURL converts a filesystem path under root into its canonical URL.
// The URL is root-relative, slash-separated, and cleaned. Paths that resolve
// outside root fail with OutOfRootError.
func PathToURL(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", root, err)
	}
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(absRoot, p)
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil {
		return "", &OutOfRootError{Root: root, Path: p}
	}
	u := path.Clean(filepath.ToSlash(rel))
	if u == ".." || strings.HasPrefix(u, "../") {
		return "", &OutOfRootError{Root: root, Path: p}
	}
	return u, nil
}

// URLToPath converts a canonical URL back into a filesystem path under root.
// Inverse of PathToURL for any path under root.
func URLToPath(root, u string) (string, error) {
	clean := path.Clean("/" + u)
	if clean == "/" {
		return "", &OutOfRootError{Root: root, Path: u}
	}
	return filepath.Join(root, filepath.FromSlash(clean[1:])), nil
}

// IsRemote reports whether a reference specifier points outside the project's
// URL space (absolute URL or protocol-relative). Remote specifiers never
// become graph edges.
func IsRemote(spec string) bool {
	if strings.HasPrefix(spec, "//") {
		return true
	}
	parsed, err := url.Parse(spec)
	if err != nil {
		return false
	}
	return parsed.Scheme != ""
}

// Resolve resolves a relative specifier against the URL of the document that
// contains it, yielding a canonical URL in the same space PathToURL produces.
func Resolve(baseURL, spec string) string {
	spec = strings.SplitN(spec, "#", 2)[0]
	spec = strings.SplitN(spec, "?", 2)[0]
	if spec == "" {
		return baseURL
	}
	if strings.HasPrefix(spec, "/") {
		return path.Clean(spec)[1:]
	}
	return path.Clean(path.Join(path.Dir(baseURL), spec))
}

// Relative computes the specifier that resolves to target from a document
// located at base. Used to rebase references when content migrates into a
// bundle at a different directory.
func Relative(baseURL, targetURL string) string {
	baseDir := path.Dir(baseURL)
	if baseDir == "." {
		return targetURL
	}
	baseParts := strings.Split(baseDir, "/")
	targetParts := strings.Split(targetURL, "/")

	common := 0
	for common < len(baseParts) && common < len(targetParts)-1 {
		if baseParts[common] != targetParts[common] {
			break
		}
		common++
	}

	var b strings.Builder
	for i := common; i < len(baseParts); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(targetParts[common:], "/"))
	return b.String()
}
