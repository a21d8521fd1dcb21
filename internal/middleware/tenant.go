package middleware

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TenantIDKey = "tenant_id"

// Tenant resolves the calling tenant from the X-Tenant-ID header set by the
// authenticating gateway in front of this service. Every data access below
// this point is scoped to that tenant.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("missing X-Tenant-ID header"))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid X-Tenant-ID header"))
			return
		}
		c.Set(TenantIDKey, id)
		c.Next()
	}
}

// GetTenantID is a helper to retrieve the tenant from the Gin context.
func GetTenantID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(TenantIDKey).(uuid.UUID)
	return id
}
