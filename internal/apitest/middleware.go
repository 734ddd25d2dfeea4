package apitest

import (
	"compress/gzip"
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// WithLogging логирует каждый запрос: метод, путь, статус, размер, время.
func WithLogging(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rd := &responseData{status: http.StatusOK}
			next.ServeHTTP(&loggingResponseWriter{ResponseWriter: w, responseData: rd}, r)
			logger.Infow("request",
				"method", r.Method,
				"uri", r.RequestURI,
				"request_id", r.Header.Get("X-Request-ID"),
				"status", rd.status,
				"size", rd.size,
				"duration", time.Since(start),
			)
		})
	}
}

type gzipWriter struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (g *gzipWriter) Write(b []byte) (int, error) { return g.zw.Write(b) }

func (g *gzipWriter) WriteHeader(statusCode int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(statusCode)
}

// WithGzip сжимает ответ, если клиент принимает gzip.
func WithGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		zw := gzip.NewWriter(w)
		defer zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		next.ServeHTTP(&gzipWriter{ResponseWriter: w, zw: zw}, r)
	})
}

type userKey struct{}

// WithBearerAuth пропускает только запросы с действующим access-токеном.
func WithBearerAuth(tokens *tokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"detail": "Authentication credentials were not provided.",
				})
				return
			}
			email, err := tokens.parseAccess(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"detail": "Given token not valid for any token type",
					"code":   "token_not_valid",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, email)))
		})
	}
}

// userFromContext возвращает email аутентифицированного пользователя.
func userFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userKey{}).(string)
	return email, ok
}
