package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS 返回基于显式来源白名单的跨域中间件；dev 环境放行所有来源。
func CORS(allowed []string, env string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if _, ok := allowedSet[origin]; ok || env == "dev" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// OriginAllowed 供 WebSocket 升级时复用同一份白名单判断。
func OriginAllowed(allowed []string, env string) func(r *http.Request) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || env == "dev" {
			return true
		}
		_, ok := allowedSet[origin]
		return ok
	}
}
