package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CurrentUserID returns the authenticated user ID from the gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// CurrentClinicID returns the acting clinic (tenant) ID from the gin context.
// For admins this may differ from the clinic on their token.
func CurrentClinicID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextClinicIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// HasRole reports whether the authenticated user carries the given role.
func HasRole(c *gin.Context, role string) bool {
	v, ok := c.Get(ContextRolesKey)
	if !ok {
		return false
	}
	roles, ok := v.([]string)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
