package middleware

import "github.com/gin-gonic/gin"

// AllowPaths bypasses the limiter for the given route patterns, e.g. the health
// check.
func AllowPaths(paths ...string) AllowFunc {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(c *gin.Context) bool {
		_, ok := set[normalizePath(c)]
		return ok
	}
}
