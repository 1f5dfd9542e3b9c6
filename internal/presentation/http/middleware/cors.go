package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dashboard dev servers run on these ports; production traffic is vetted by
// the tenant domain check instead, so only local origins are listed here.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:4173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:4173",
	"http://[::1]:3000",
	"http://[::1]:5173",
	"http://[::1]:4173",
}

// CORSMiddleware configures cross-origin access for the dashboard SPA.
// Last-Event-ID and Cache-Control are needed by the SSE reconnect path.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: devOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Tenant-ID", "X-Requested-With", "X-Plateful-Session-ID",
			"Cache-Control", "Last-Event-ID",
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Type", "Cache-Control", "Connection"},
	})
}
