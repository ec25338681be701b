package metrics

import (
	"net/http"
	"strconv"
	"time"
)

type httpRequestInterceptor struct {
	http.ResponseWriter

	statusCode int
}

func (r *httpRequestInterceptor) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *httpRequestInterceptor) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *httpRequestInterceptor) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func Measure(metricsReporter Reporter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		interceptor := httpRequestInterceptor{w, http.StatusOK}

		next(&interceptor, r)

		duration := time.Since(start)
		metricsReporter.(*reporter).httpResponseTime.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(interceptor.statusCode)).Observe(duration.Seconds())
	}
}
