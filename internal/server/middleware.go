package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelpay/topup/internal/authctx"
)

const (
	// Identity headers set by the authenticating proxy in front of this
	// service. Requests reaching us are already authenticated; a missing
	// user header means a guest.
	HeaderUserID = "X-User-ID"
	HeaderAdmin  = "X-Admin"
)

// IdentityContext lifts the forwarded identity headers into the request
// context so services never touch transport details.
func IdentityContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authctx.ParseUserID(c.GetHeader(HeaderUserID))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity := authctx.Identity{
			UserID:  userID,
			IsAdmin: strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderAdmin)), "true"),
		}
		c.Request = c.Request.WithContext(authctx.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authctx.FromContext(c.Request.Context())
		if !ok || id.UserID == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !id.IsAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authctx.UserIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
