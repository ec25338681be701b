package reload

import (
	"encoding/json"
	"fmt"
	"net/url"
)

const snippetTemplate = "(function(l, r) { if (l.getElementById('livereloadscript')) return; r = l.createElement('script'); r.async = 1; r.src = %s; r.id = 'livereloadscript'; l.getElementsByTagName('head')[0].appendChild(r) })(window.document);"

// SanitizeURL normalizes a user supplied client script address. Only
// absolute URLs carrying both a scheme and a host are accepted.
func SanitizeURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// clientSrc returns a JS expression evaluating to the client script address.
func clientSrc(clientURL string, port int) string {
	if sanitized, ok := SanitizeURL(clientURL); ok {
		if encoded, err := json.Marshal(sanitized); err == nil {
			return string(encoded)
		}
	}
	return fmt.Sprintf("'//' + (window.location.host || 'localhost').split(':')[0] + ':%d/livereload.js?snipver=1'", port)
}

func snippet(clientURL string, port int) string {
	return fmt.Sprintf(snippetTemplate, clientSrc(clientURL, port))
}

func green(text string) string {
	return "\u001b[1m\u001b[32m" + text + "\u001b[39m\u001b[22m"
}
