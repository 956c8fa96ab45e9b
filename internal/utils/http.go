package utils

import (
	"github.com/gin-gonic/gin"
)

// GetRealClientIP returns the client address used to key per-client limits.
// Forwarding headers are honoured only when the direct peer is a trusted proxy
// (see gin.Engine.SetTrustedProxies); otherwise the peer address is used.
func GetRealClientIP(c *gin.Context) string {
	return c.ClientIP()
}
