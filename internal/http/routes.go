package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tazhibayda/profile-service/internal/metrics"
)

type RouterOptions struct {
	CORSOrigins []string
	// RequireOwner restricts section writes to the profile's owner.
	RequireOwner bool
	// TraceService enables request tracing under that service name.
	TraceService string
	// AuthLimiter guards the credential endpoints; nil uses an in-process limiter.
	AuthLimiter Limiter
}

func NewRouter(h *Handler, o RouterOptions) *gin.Engine {
	metrics.MustRegister()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if o.TraceService != "" {
		r.Use(Tracing(o.TraceService))
	}
	r.Use(AccessLog(h.Log), Metrics())
	r.Use(cors.New(corsConfig(o.CORSOrigins)))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := o.AuthLimiter
	if limiter == nil {
		limiter = LocalLimiter{RL: NewRateLimiter(20, time.Minute)}
	}
	authAPI := r.Group("/api/auth")
	{
		authAPI.POST("/register", RateLimit(limiter), h.Register)
		authAPI.POST("/login", RateLimit(limiter), h.Login)
		authAPI.POST("/signup", RateLimit(limiter), h.SignUp)
		authAPI.POST("/signin", RateLimit(limiter), h.SignIn)
		authAPI.POST("/google", RateLimit(limiter), h.Google)
		authAPI.POST("/logout", h.Logout)
		authAPI.GET("/me", AuthRequired(h), h.Me)
	}

	profileAPI := r.Group("/api/profile")
	{
		profileAPI.GET("/profiles", h.ListProfiles)
		profileAPI.GET("/:id/getprofile", h.GetProfile)

		guard := []gin.HandlerFunc{AuthRequired(h)}
		if o.RequireOwner {
			guard = append(guard, OwnerOnly(h))
		}
		for _, sr := range sectionRoutes {
			handlers := append(append([]gin.HandlerFunc{}, guard...), h.UpdateSection(sr))
			profileAPI.POST("/:id/"+sr.path, handlers...)
		}
	}
	return r
}

// corsConfig allows credentials for the listed origins; with none listed any
// origin may call without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
