package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string // "*" allows any origin, without credentials
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration // preflight cache lifetime, 0 omits the header
}

// DefaultCORSConfig returns sensible defaults for local development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Traceparent"},
		ExposedHeaders: []string{"Content-Length", "X-Request-Id"},
		MaxAge:         12 * time.Hour,
	}
}

type corsPolicy struct {
	origins   map[string]bool
	anyOrigin bool
	methods   string
	headers   string
	exposed   string
	maxAge    string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins: make(map[string]bool, len(cfg.AllowedOrigins)),
		methods: strings.Join(cfg.AllowedMethods, ", "),
		headers: strings.Join(cfg.AllowedHeaders, ", "),
		exposed: strings.Join(cfg.ExposedHeaders, ", "),
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[origin] = true
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return p
}

// apply sets the response headers when origin is allowed
func (p corsPolicy) apply(h http.Header, origin string, preflight bool) {
	switch {
	case origin == "":
		return
	case p.origins[origin]:
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	case p.anyOrigin:
		h.Set("Access-Control-Allow-Origin", "*")
	default:
		return
	}

	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
	if preflight && p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
}

// CORS returns middleware that handles CORS headers. Preflight requests are
// answered here and never reach auth.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			policy.apply(w.Header(), r.Header.Get("Origin"), preflight)

			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
