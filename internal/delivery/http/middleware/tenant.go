package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// SetFestivalSlug returns a context carrying the festival slug resolved from the host.
func SetFestivalSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey, slug)
}

// FestivalSlugFromContext returns the slug set by Tenant, if any.
func FestivalSlugFromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(slugKey).(string)
	return slug, ok && slug != ""
}

// Tenant resolves hosts of the form {slug}.{baseDomain} to a festival slug and
// stores it in the request context. Other hosts pass through untouched. An
// empty baseDomain disables the lookup.
func Tenant(baseDomain string, next http.Handler) http.Handler {
	suffix := "." + strings.ToLower(strings.Trim(baseDomain, ". "))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if suffix != "." {
			if slug := slugFromHost(r.Host, suffix); slug != "" {
				r = r.WithContext(SetFestivalSlug(r.Context(), slug))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func slugFromHost(host, suffix string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	slug, ok := strings.CutSuffix(host, suffix)
	if !ok || slug == "" || strings.Contains(slug, ".") || slug == "www" {
		return ""
	}
	return slug
}
