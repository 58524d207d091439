package rest

import (
	"context"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-api/internal/infrastructure/db/postgres"
	"gallery-api/internal/interface/api/rest/response"
)

type DBInspector interface {
	Status(ctx context.Context) (*postgres.Status, error)
}

type DebugController struct {
	inspector DBInspector
	logger    *zap.Logger
}

// NewDebugController mounts introspection routes. Callers only do this
// outside release mode.
func NewDebugController(r *gin.Engine, inspector DBInspector, logger *zap.Logger) *DebugController {
	dc := &DebugController{inspector: inspector, logger: logger}

	r.GET(RouteDebugDBStatus, dc.DBStatusHandler)
	pprof.Register(r, RouteDebugPprof)

	return dc
}

func (dc *DebugController) DBStatusHandler(c *gin.Context) {
	st, err := dc.inspector.Status(c.Request.Context())
	if err != nil {
		dc.logger.Error("db status error", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Envelope{
			Status:  response.StatusError,
			Message: "database status unavailable",
			Details: gin.H{"error": err.Error(), "status": st},
		})
		return
	}

	response.Success(c, http.StatusOK, st)
}
