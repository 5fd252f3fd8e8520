package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	pkgmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type Deps struct {
	Auth      *AuthHTTP
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Discounts *DiscountHTTP
	JWTSecret []byte
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMw := pkgmw.NewBearerAuth(d.JWTSecret)
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.GET("/profile", d.Auth.Profile, authMw.RequireAuth)
	auth.PUT("/profile", d.Auth.UpdateProfile, authMw.RequireAuth)

	products := api.Group("/productos")
	products.GET("", d.Catalog.List)
	products.GET("/categoria/:categoria", d.Catalog.ByCategory)
	products.GET("/search", d.Catalog.Search)
	products.GET("/user/products", d.Catalog.Mine, authMw.RequireAuth)
	products.GET("/:id", d.Catalog.Get)
	products.POST("", d.Catalog.Create, authMw.RequireAuth)
	products.PUT("/:id", d.Catalog.Update, authMw.RequireAuth)
	products.DELETE("/:id", d.Catalog.Delete, authMw.RequireAuth)

	cart := api.Group("/cart", authMw.RequireAuth)
	cart.GET("", d.Cart.Get)
	cart.POST("", d.Cart.Add)
	cart.PUT("/:id", d.Cart.SetQuantity)
	cart.DELETE("/:id", d.Cart.Remove)
	cart.DELETE("", d.Cart.Clear)

	discounts := api.Group("/discounts", authMw.RequireAuth)
	discounts.GET("", d.Discounts.List)
	discounts.POST("/save", d.Discounts.Save)
	discounts.GET("/validate/:code", d.Discounts.Validate)
}
