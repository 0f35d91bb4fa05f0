package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsMiddleware allows same-origin requests only: the management UI is
// served from the same host as the API, so there is no legitimate
// cross-origin caller.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		reqHost := c.Request.Host
		allow := false
		if origin != "" {
			o := origin
			if i := strings.Index(o, "://"); i >= 0 {
				o = o[i+3:]
			}
			if o == reqHost {
				allow = true
			}
		}
		if allow {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			if allow {
				c.AbortWithStatus(http.StatusOK)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds the fixed set of response headers every
// displayd response carries.
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("X-Service-Version", s.version)
		c.Next()
	}
}

// requestLoggingMiddleware logs each request in the daemon's structured
// single-line format.
func (s *Server) requestLoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("INFO: server: %s %s %s %d %s\n",
			param.ClientIP,
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
		)
	})
}

// requireAuth rejects requests without a valid, unrevoked bearer token.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, jti, ok := s.authenticate(c.Request)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Set("jti", jti)
		c.Next()
	}
}

// authenticate verifies the bearer token's signature and expiry, then
// checks it against the session store so a logout takes effect immediately
// instead of waiting out the token's remaining lifetime.
func (s *Server) authenticate(r *http.Request) (user string, jti string, ok bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	token := strings.TrimPrefix(header, prefix)
	user, jti, err := s.tokens.Verify(token)
	if err != nil {
		return "", "", false
	}
	if _, found := s.sessions.Get(jti); !found {
		return "", "", false
	}
	return user, jti, true
}
