package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
	"golang.org/x/time/rate"
)

// AuthMiddleware resolves the session cookie or bearer token into an identity.
// With required=false an anonymous request passes through without an identity.
type AuthMiddleware struct {
	BaseHandler
	auth     services.Authenticator
	identity services.IdentityService
	cookie   string
}

func NewAuthMiddleware(auth services.Authenticator, identity services.IdentityService, cookie string, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		identity:    identity,
		cookie:      cookie,
	}
}

func (m *AuthMiddleware) sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(m.cookie); err == nil {
		return token
	}
	return ""
}

func (m *AuthMiddleware) Authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.sessionToken(c)
		if token == "" {
			if required {
				m.RespondWithError(c, http.StatusUnauthorized, services.ErrUnauthenticated.Error(), nil)
				return
			}
			c.Next()
			return
		}

		identity, err := m.auth.Verify(c.Request.Context(), token)
		if err != nil {
			if required {
				m.handleServiceError(c, err)
				return
			}
			c.Next()
			return
		}

		c.Set(userSubKey, identity.Sub)
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole resolves the caller's stored role and rejects roles outside allowed.
func (m *AuthMiddleware) RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := mustIdentity(c)
		if identity == nil {
			return
		}

		role, err := m.identity.ResolveRole(c.Request.Context(), identity.Sub, allowed...)
		if err != nil {
			m.handleServiceError(c, err)
			return
		}

		scoped := *identity
		scoped.Role = role
		c.Set(identityKey, &scoped)
		c.Next()
	}
}

// ClientRateLimiter hands out one token bucket per client IP.
type ClientRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientRateLimiter(perMinute int) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &ClientRateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(1, perMinute/6),
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

func (l *ClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.ttl {
		l.sweep(now)
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// sweep drops idle buckets; callers hold mu.
func (l *ClientRateLimiter) sweep(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests"})
			return
		}
		c.Next()
	}
}
