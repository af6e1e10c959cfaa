package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

const (
	GinContextKeyPrincipal = "principal"
)

func AuthMiddleware(verifier service.TokenVerifier, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeyPrincipal, *principal)
		c.Next()
	}
}

func GetPrincipalFromGinContext(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(GinContextKeyPrincipal)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	if !ok || p.UserID == "" {
		return service.Principal{}, false
	}
	return p, true
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			log.Error("Unhandled error", err, zap.String("path", c.FullPath()))
			c.JSON(http.StatusInternalServerError, apperror.NewInternal("unexpected error", err).ToJSON())
			return
		}

		status := apperror.ToHTTPStatus(appErr)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("path", c.FullPath()), zap.Int("status", status))
		} else {
			log.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}
		c.JSON(status, appErr.ToJSON())
	}
}

// RateLimit applies a token bucket per client IP. Idle buckets expire.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := cache.New(10*time.Minute, 5*time.Minute)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		var lim *rate.Limiter
		if v, ok := limiters.Get(ip); ok {
			lim = v.(*rate.Limiter)
		} else {
			lim = rate.NewLimiter(rate.Limit(perSecond), burst)
			if err := limiters.Add(ip, lim, cache.DefaultExpiration); err != nil {
				// Another request registered this IP first.
				if v, ok := limiters.Get(ip); ok {
					lim = v.(*rate.Limiter)
				}
			}
		}
		limiters.SetDefault(ip, lim)

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
