package router

import (
	"modelPilot/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc, selfOrAdmin echo.MiddlewareFunc) {
	users := api.Group("/users")

	users.POST("/register", handler.Register)
	users.POST("/login", handler.Login)
	users.POST("/refresh", handler.RefreshToken)

	users.POST("/logout", handler.Logout, authRequired)
	users.PUT("/:id", handler.UpdateUser, authRequired, selfOrAdmin)
	users.GET("/:id", handler.GetUserByID, authRequired, selfOrAdmin)
	users.GET("", handler.GetAllUsers, authRequired, adminOnly)
	users.DELETE("/:id", handler.DeleteUser, authRequired, adminOnly)
}

func SetModelRegistryRoutes(api *echo.Group, handler *rest.RegistryHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	models := api.Group("/models", authRequired)

	models.GET("", handler.GetAll)
	models.GET("/:name", handler.GetByName)
	models.POST("", handler.Register, adminOnly)
	models.PUT("/:name", handler.Update, adminOnly)
	models.DELETE("/:name", handler.Delete, adminOnly)
}

func SetupExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler, authRequired echo.MiddlewareFunc) {
	experiments := api.Group("/experiments", authRequired)

	experiments.GET("", handler.GetAll)
	experiments.GET("/:name/report", handler.Report)
	experiments.POST("/:name/step", handler.Step)
	experiments.POST("/:name/predict", handler.Predict)
}

func SetExperimentAdminRoutes(api *echo.Group, handler *rest.ExperimentAdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {

	admin := api.Group("/admin/experiments", authRequired, adminOnly)

	admin.POST("", handler.Create)
	admin.POST("/:name/models", handler.AddModels)
	admin.POST("/:name/pause", handler.Pause)
	admin.POST("/:name/resume", handler.Resume)
	admin.DELETE("/:name", handler.Delete)
	admin.GET("/:name/debug", handler.Debug)
	admin.GET("/:name/decisions", handler.Decisions)
}

func SetReplayRoutes(api *echo.Group, handler *rest.ReplayHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	replays := api.Group("/replays", authRequired)

	replays.POST("/:dataset/samples", handler.Ingest)
	replays.POST("/:dataset/run", handler.Run)
	replays.DELETE("/:dataset", handler.DeleteDataset, adminOnly)
}
