package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/metrics"
	"github.com/flicky/storefront-api/internal/middleware"
)

// Services is everything the HTTP surface calls into.
type Services struct {
	Accounts  Accounts
	Users     Users
	Addresses AddressBook
	Catalog   Catalog
	Carts     Carts
	Orders    Orders
	Dashboard Dashboard
}

func NewRouter(log *slog.Logger, maxBodyBytes int64, svc Services, health *HealthHandler) *gin.Engine {
	authH := NewAuthHandler(svc.Accounts)
	userH := NewUserHandler(svc.Users)
	addressH := NewAddressHandler(svc.Addresses)
	productH := NewProductHandler(svc.Catalog)
	cartH := NewCartHandler(svc.Carts)
	orderH := NewOrderHandler(svc.Orders)
	statsH := NewStatsHandler(svc.Dashboard)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware())

	router.GET("/healthz", health.Healthz)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireUser := middleware.AuthMiddleware(svc.Accounts)

	api := router.Group("/api", middleware.MaxBody(maxBodyBytes))
	{
		auth := api.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/profile", requireUser, authH.Profile)

		users := api.Group("/users", requireUser)
		users.GET("/profile", authH.Profile)
		users.PUT("/profile", userH.UpdateProfile)

		addresses := api.Group("/addresses", requireUser)
		addresses.GET("", addressH.List)
		addresses.POST("", addressH.Add)
		addresses.GET("/:id", addressH.Get)
		addresses.PUT("/:id", addressH.Update)
		addresses.DELETE("/:id", addressH.Delete)

		products := api.Group("/products")
		products.GET("", productH.List)
		products.GET("/search", productH.Search)
		products.GET("/new-arrivals", productH.NewArrivals)
		products.GET("/category/:category", productH.ByCategory)
		products.GET("/:id", productH.GetByID)

		cart := api.Group("/cart", requireUser)
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:productId", cartH.UpdateItem)
		cart.DELETE("/items/:productId", cartH.DeleteItem)

		orders := api.Group("/orders", requireUser)
		orders.POST("", orderH.PlaceOrder)
		orders.GET("/my", orderH.ListMine)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/cancel", orderH.Cancel)

		admin := api.Group("/admin", requireUser, middleware.AdminOnly())
		admin.GET("/products", productH.AdminList)
		admin.POST("/products", productH.Create)
		admin.GET("/products/:id", productH.AdminGet)
		admin.PUT("/products/:id", productH.Update)
		admin.DELETE("/products/:id", productH.Delete)

		admin.GET("/orders", orderH.ListAll)
		admin.GET("/orders/:id", orderH.GetOrder)
		admin.PUT("/orders/:id/ship", orderH.Ship)
		admin.PUT("/orders/:id/deliver", orderH.Deliver)
		admin.PUT("/orders/:id/cancel", orderH.Cancel)

		admin.GET("/users", userH.List)
		admin.GET("/users/:id", userH.Get)
		admin.PUT("/users/:id/block", userH.ToggleBlock)

		admin.GET("/stats", statsH.Get)
	}

	return router
}
