package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/aaos-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aaos-backend/internal/http/middleware"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	OperatorAuth   *httpMW.OperatorAuth

	HealthHandler      *httpH.HealthHandler
	SystemHandler      *httpH.SystemHandler
	ControlHandler     *httpH.ControlHandler
	SessionHandler     *httpH.SessionHandler
	UserContextHandler *httpH.UserContextHandler
	IdentityHandler    *httpH.IdentityHandler
	SignalHandler      *httpH.SignalHandler
	ProjectionHandler  *httpH.ProjectionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// System
	if cfg.SystemHandler != nil {
		api.POST("/system/bootstrap", cfg.SystemHandler.Bootstrap)
		api.POST("/system/transition", cfg.SystemHandler.Transition)
		if cfg.OperatorAuth != nil {
			operator := api.Group("/system", cfg.OperatorAuth.RequireOperator())
			operator.POST("/pause", cfg.SystemHandler.PauseSystem)
			operator.POST("/resume", cfg.SystemHandler.ResumeSystem)
		}
	}

	// Control
	if cfg.ControlHandler != nil {
		api.POST("/control/pause", cfg.ControlHandler.Pause)
		api.POST("/control/resume", cfg.ControlHandler.Resume)
		api.GET("/control/status", cfg.ControlHandler.Status)
	}

	// Session
	if cfg.SessionHandler != nil {
		api.POST("/session/open", cfg.SessionHandler.Open)
		api.POST("/session/advance", cfg.SessionHandler.Advance)
		api.POST("/session/close", cfg.SessionHandler.Close)
	}

	// User context
	if cfg.UserContextHandler != nil {
		api.POST("/context/ensure", cfg.UserContextHandler.Ensure)
		api.POST("/context/last-closed-session", cfg.UserContextHandler.SetLastClosedSession)
		api.POST("/context/activate-model-set", cfg.UserContextHandler.ActivateModelSet)
		api.POST("/context/clear-model-set", cfg.UserContextHandler.ClearModelSet)
		api.POST("/context/reset", cfg.UserContextHandler.Reset)
	}

	// Identity
	if cfg.IdentityHandler != nil {
		api.POST("/model-sets", cfg.IdentityHandler.CreateModelSet)
		api.POST("/identity/versions", cfg.IdentityHandler.CreateVersion)
		api.GET("/identity/versions/latest", cfg.IdentityHandler.GetLatestVersion)
	}

	// Signals
	if cfg.SignalHandler != nil {
		api.POST("/confidence", cfg.SignalHandler.RecordConfidence)
		api.GET("/confidence/latest", cfg.SignalHandler.LatestConfidence)
		api.POST("/pressure", cfg.SignalHandler.RecordPressure)
		api.GET("/pressure/latest", cfg.SignalHandler.LatestPressure)
	}

	// Projections
	if cfg.ProjectionHandler != nil {
		api.GET("/projections", cfg.ProjectionHandler.List)
		api.POST("/projections/:name", cfg.ProjectionHandler.Execute)
	}

	return r
}
