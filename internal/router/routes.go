package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/savorly/restaurant-recommender/internal/auth"
	"github.com/savorly/restaurant-recommender/internal/config"
	"github.com/savorly/restaurant-recommender/internal/handler"
	middlewarepkg "github.com/savorly/restaurant-recommender/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserAdminHandler
	Restaurants *handler.RestaurantsHandler
	Recommend   *handler.RecommendHandler
	AdminUpload *handler.AdminUploadHandler
}

// Register wires all HTTP routes for the API. The recommendation endpoint is
// public but rate limited; catalogue management sits behind the admin role.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	e.GET("/restaurants", handlers.Restaurants.List)
	e.GET("/restaurants/:id", handlers.Restaurants.GetByID)
	e.GET("/places", handlers.Restaurants.Places)
	e.GET("/cuisines", handlers.Restaurants.Cuisines)

	e.POST("/recommendations", handlers.Recommend.Recommend, middlewarepkg.RecommendRateLimiter(cfg.RateLimitRecommend))

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.POST("/restaurants/upload-csv", handlers.AdminUpload.UploadCSV)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
