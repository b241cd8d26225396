package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/youredik/kubik/internal/handlers"
	"github.com/youredik/kubik/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SizeHandler    *handlers.SizeHandler
	OrderHandler   *handlers.OrderHandler
	UploadHandler  *handlers.UploadHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *auth.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/products", d.ProductHandler.GetProducts)
	v1.GET("/products/:id", d.ProductHandler.GetProduct)
	v1.GET("/sizes", d.SizeHandler.GetSizes)
	v1.POST("/orders", d.OrderHandler.CreateOrder)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	admin := v1.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)

	admin.GET("/products", d.ProductHandler.AdminGetProducts)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PUT("/products/:id", d.ProductHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.DELETE("/products/:id/images/:imageName", d.ProductHandler.DeleteProductImage)

	admin.PUT("/sizes", d.SizeHandler.UpdateSize)
	admin.GET("/orders", d.OrderHandler.GetOrders)
	admin.POST("/upload", d.UploadHandler.Upload)
}
