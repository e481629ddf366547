package inline

import (
	"fmt"
	"regexp"
	"strings"

	"webbundle/internal/urlmap"
)

// cssURLPattern matches url(...) tokens, with or without quotes.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// RebaseCSS rewrites relative url(...) tokens of a stylesheet authored at
// fromURL so they keep resolving after the stylesheet is inlined into a
// document at toURL. Remote, data: and root-absolute URLs pass through.
func RebaseCSS(css, fromURL, toURL string) string {
	if fromURL == toURL {
		return css
	}
	return cssURLPattern.ReplaceAllStringFunc(css, func(match string) string {
		spec := cssURLPattern.FindStringSubmatch(match)[1]
		if urlmap.IsRemote(spec) || strings.HasPrefix(spec, "/") {
			return match
		}
		target := urlmap.Resolve(fromURL, spec)
		return fmt.Sprintf("url(%q)", urlmap.Relative(toURL, target))
	})
}
