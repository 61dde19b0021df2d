package payload

import (
	"net/url"
	"strings"
)

// componentUnescapes restores the marks that encodeURIComponent leaves alone
// but url.QueryEscape escapes.
var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s like ECMAScript encodeURIComponent:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped, space as %20.
func EncodeURIComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}
