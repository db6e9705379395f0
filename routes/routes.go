package routes

import (
	"satchel/api"
	"satchel/auth"
	"satchel/catalog"
	"satchel/coupons"
	"satchel/middleware"
	"satchel/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
}

// Cart routes accept guests; a valid token still resolves the customer so a
// guest cart can be claimed after login.
func AddCartRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/cart", middleware.OptionalAuth(api.GetCart))
	router.GET("/api/cart/count", middleware.OptionalAuth(api.CountItems))
	router.POST("/api/cart/add", rl.Limit(middleware.OptionalAuth(api.AddItem)))
	router.POST("/api/cart/calculate", middleware.OptionalAuth(api.CalculateTotals))
	router.POST("/api/cart/clear", rl.Limit(middleware.OptionalAuth(api.ClearCart)))
	router.POST("/api/cart/item/:item_key", rl.Limit(middleware.OptionalAuth(api.UpdateItem)))
	router.DELETE("/api/cart/item/:item_key", rl.Limit(middleware.OptionalAuth(api.RemoveItem)))
	router.PUT("/api/cart/item/:item_key/restore", rl.Limit(middleware.OptionalAuth(api.RestoreItem)))
	router.POST("/api/cart/item/:item_key/price", rl.Limit(middleware.OptionalAuth(api.SetItemPrice)))
	router.POST("/api/cart/coupon", rl.Limit(middleware.OptionalAuth(api.ApplyCoupon)))
	router.DELETE("/api/cart/coupon/:code", rl.Limit(middleware.OptionalAuth(api.RemoveCoupon)))
	router.POST("/api/checkout", rl.Limit(middleware.OptionalAuth(api.InitiateCheckout)))
}

func AddSessionRoutes(router *httprouter.Router) {
	router.GET("/api/session/:cart_key", middleware.Authenticate(api.GetSession))
	router.DELETE("/api/session/:cart_key", middleware.Authenticate(api.DeleteSession))
}

func AddCatalogRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/products", catalog.ListProducts)
	router.GET("/api/products/:productid", catalog.GetProduct)
	router.POST("/api/products", middleware.Authenticate(catalog.CreateProduct))
	router.POST("/api/products/:productid/image", rl.Limit(middleware.Authenticate(catalog.UploadProductImage)))
}

func AddCouponRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/coupons/validate", rl.Limit(coupons.ValidateCouponHandler))
	router.POST("/api/coupons", middleware.Authenticate(coupons.CreateCoupon))
}
