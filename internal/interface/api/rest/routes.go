package rest

import (
	"slices"

	"github.com/gin-gonic/gin"
)

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth       = RouteApiV1 + "/auth"
	RouteSignup     = RouteAuth + "/signup"
	RouteLogin      = RouteAuth + "/login"
	RouteDeleteUser = RouteAuth + "/delete"

	// images
	RouteImages        = RouteApiV1 + "/images"
	RouteImagesUpload  = RouteImages + "/upload"
	RouteImagesMe      = RouteImages + "/me"
	RouteImage         = RouteImages + "/:id"
	RouteImageAddURL   = RouteImages + "/addURL/:id"
	RouteImageRemoveBg = RouteImage + "/remove-bg"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"

	// debug, outside release mode only
	RouteDebug         = RouteApiV1 + "/debug"
	RouteDebugDBStatus = RouteDebug + "/db-status"
	RouteDebugPprof    = RouteDebug + "/pprof"
)

// chain appends h without touching the backing array of mw.
func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(mw), h)
}
