package http

import (
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

// Tracing starts a Datadog span per request; handlers and stores hang child
// spans off the request context.
func Tracing(service string) gin.HandlerFunc {
	return gintrace.Middleware(service, gintrace.WithIgnoreRequest(func(c *gin.Context) bool {
		return c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics"
	}))
}
