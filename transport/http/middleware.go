package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/service"
)

// AuthCookieName is the legacy cookie slot for the identity token. The
// Authorization header takes precedence when both are present.
const AuthCookieName = "authentication"

const claimsKey = "loginClaims"

// BearerToken pulls the credential from the Authorization header or, as a
// fallback, the legacy cookie. Empty string means no credential at all.
func BearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && auth[:7] == "Bearer " {
		return auth[7:]
	}

	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}

	return ""
}

// AuthMiddleware rejects requests without a verifiable identity token and
// stores the claims for downstream handlers. A token inside its renewal
// window is rejected with a hint so the client can call reauth.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}

		claims, err := authService.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrRenewalRequired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token renewal required",
					"renew": true,
				})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(claimsKey, claims)

		c.Next()
	}
}

// ClaimsFrom returns the verified claims stored by AuthMiddleware
func ClaimsFrom(c *gin.Context) (*core.LoginClaims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*core.LoginClaims)
	return claims, ok
}
