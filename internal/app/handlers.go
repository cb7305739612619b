package app

import (
	server "github.com/yungbote/aaos-backend/internal/http"
	httpH "github.com/yungbote/aaos-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aaos-backend/internal/http/middleware"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, s Services) server.RouterConfig {
	log.Info("Wiring handlers...")
	if cfg.OperatorJWTSecret == "" {
		log.Warn("OPERATOR_JWT_SECRET not set; system pause/resume will reject every request")
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return server.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		OperatorAuth:       httpMW.NewOperatorAuth(log, cfg.OperatorJWTSecret),
		HealthHandler:      httpH.NewHealthHandler(),
		SystemHandler:      httpH.NewSystemHandler(s.Session, s.Control),
		ControlHandler:     httpH.NewControlHandler(s.Control),
		SessionHandler:     httpH.NewSessionHandler(s.Session),
		UserContextHandler: httpH.NewUserContextHandler(s.UserContext),
		IdentityHandler:    httpH.NewIdentityHandler(s.Identity),
		SignalHandler:      httpH.NewSignalHandler(s.Signal),
		ProjectionHandler:  httpH.NewProjectionHandler(log, s.Projections),
	}
}
