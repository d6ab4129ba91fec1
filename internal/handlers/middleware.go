package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestctx.HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestctx.HeaderRequestID, id)
		c.Request = c.Request.WithContext(requestctx.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger emits one structured log line per request.
func RequestLogger(logger *logging.LoggerV2) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logging.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  requestctx.RequestID(c.Request.Context()),
		}
		if s, ok := requestctx.Session(c.Request.Context()); ok {
			fields["user_id"] = s.UserID
			fields["role"] = s.Role
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("Request completed", fields)
			return
		}
		logger.Info("Request completed", fields)
	}
}

// Authenticate resolves the bearer token to a session and stores it on the request context.
func (h *Handlers) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing or invalid"})
			return
		}

		s, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			h.handleError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(requestctx.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// RequireRole rejects sessions whose role is not one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		s, ok := requestctx.Session(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := allowed[s.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
