package mware

import (
	"net/http"
	"slices"
	"strings"
)

var defaultAllowedHeaders = strings.Join([]string{
	"Cache-Control",
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"If-None-Match",
}, ",")

var defaultExposedHeaders = strings.Join([]string{
	"Content-Length",
	"ETag",
	"Date",
	"Content-Encoding",
}, ",")

var defaultAllowedOrigin = "*"

func CORS(allowedMethods []string, allowedDomains []string, exposedHeaders []string, allowedHeaders []string, next http.HandlerFunc) http.HandlerFunc {
	exposed := joinHeaders(defaultExposedHeaders, exposedHeaders)
	allowed := joinHeaders(defaultAllowedHeaders, allowedHeaders)
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if r.Method == http.MethodOptions {
			setOptionsCORSHeaders(w, origin, allowedDomains, allowedMethods, exposed, allowed)
		} else {
			setDefaultCORSHeaders(w, origin, allowedDomains, exposed)
		}
		next(w, r)
	}
}

func setDefaultCORSHeaders(w http.ResponseWriter, requestOrigin string, allowedDomains []string, exposedHeaders string) {
	w.Header().Set("Access-Control-Allow-Origin", determineOrigin(requestOrigin, allowedDomains))
	w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)
}

func setOptionsCORSHeaders(w http.ResponseWriter, requestOrigin string, allowedDomains []string, allowedMethods []string, exposedHeaders string, allowedHeaders string) {
	setDefaultCORSHeaders(w, requestOrigin, allowedDomains, exposedHeaders)
	w.Header().Set("Access-Control-Allow-Credentials", "false")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
	if len(allowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(allowedMethods, ","))
	}
}

func joinHeaders(defaults string, extra []string) string {
	headers := strings.Split(defaults, ",")
	for _, h := range extra {
		if !slices.ContainsFunc(headers, func(existing string) bool { return strings.EqualFold(existing, h) }) {
			headers = append(headers, h)
		}
	}
	return strings.Join(headers, ",")
}

func determineOrigin(requestOrigin string, allowedOrigins []string) string {
	if len(allowedOrigins) > 0 {
		if slices.Contains(allowedOrigins, requestOrigin) {
			return requestOrigin
		} else {
			return allowedOrigins[0]
		}
	}
	if requestOrigin != "" {
		return requestOrigin
	}
	return defaultAllowedOrigin
}
