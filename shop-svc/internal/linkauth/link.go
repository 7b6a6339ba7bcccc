package linkauth

import (
	"net/url"
	"strings"
)

// OrderLink builds <base>/order/<shopId>/<tableNo>/<token>.
func OrderLink(base, shopID, tableNo, token string) string {
	return strings.TrimRight(base, "/") +
		"/order/" + url.PathEscape(shopID) +
		"/" + url.PathEscape(tableNo) +
		"/" + url.PathEscape(token)
}
