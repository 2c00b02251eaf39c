package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/interfaces/http/handler"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
)

// Handlers are the API endpoints mounted by RegisterAPI
type Handlers struct {
	Auth          *handler.AuthHandler
	Tenant        *handler.TenantHandler
	User          *handler.UserHandler
	PasswordReset *handler.PasswordResetHandler
	Site          *handler.SiteHandler
	Ticket        *handler.TicketHandler
	Asset         *handler.AssetHandler
	System        *handler.SystemHandler
	Metrics       http.Handler
}

// Guards are the per-group middleware. The rate limiters may be nil.
type Guards struct {
	Auth          gin.HandlerFunc
	OptionalAuth  gin.HandlerFunc
	Tenant        gin.HandlerFunc
	AuthRateLimit gin.HandlerFunc
	OTPRateLimit  gin.HandlerFunc
	Metrics       gin.HandlerFunc
}

// RegisterAPI registers the global and the tenant scoped route groups
func RegisterAPI(r *Router, h Handlers, g Guards) *Router {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	if h.Metrics != nil {
		system.GET("/metrics", g.Metrics, gin.WrapH(h.Metrics))
	}
	system.POST("/webhooks/whatsapp", h.System.WhatsAppWebhook)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/token", g.AuthRateLimit, h.Auth.Token)
	authRoutes.POST("/token/refresh", g.AuthRateLimit, h.Auth.Refresh)
	authRoutes.POST("/logout", g.Auth, h.Auth.Logout)

	tenantRoutes := NewDomainGroup("tenants", "/tenants").Use(g.Auth)
	tenantRoutes.GET("", h.Tenant.List)
	tenantRoutes.POST("", h.Tenant.Create)

	scoped := NewDomainGroup("tenant", "/:"+middleware.TenantSlugParam)

	// Password reset works with or without a session
	passwordRoutes := scoped.Group("password", "/accounts/password").
		Use(g.OptionalAuth, g.Tenant, g.OTPRateLimit)
	passwordRoutes.POST("/otp/request", h.PasswordReset.RequestOTP)
	passwordRoutes.POST("/otp/verify", h.PasswordReset.VerifyOTP)
	passwordRoutes.POST("/reset", h.PasswordReset.ResetPassword)

	accountRoutes := scoped.Group("accounts", "/accounts").Use(g.Auth, g.Tenant)
	accountRoutes.POST("/register", h.User.Register)
	accountRoutes.GET("/me", h.User.Me)
	accountRoutes.GET("/users", h.User.List)
	accountRoutes.GET("/users/:id", h.User.Get)
	accountRoutes.PUT("/users/:id", h.User.Update)
	accountRoutes.DELETE("/users/:id", h.User.Delete)

	ticketRoutes := scoped.Group("tickets", "/tickets").Use(g.Auth, g.Tenant)
	ticketRoutes.GET("", h.Ticket.List)
	ticketRoutes.POST("", h.Ticket.Create)
	ticketRoutes.GET("/stats", h.Ticket.Stats)
	ticketRoutes.GET("/:id", h.Ticket.Get)
	ticketRoutes.PUT("/:id", h.Ticket.Update)
	ticketRoutes.DELETE("/:id", h.Ticket.Delete)
	ticketRoutes.POST("/:id/assign", h.Ticket.Assign)
	ticketRoutes.POST("/:id/confirm", h.Ticket.Confirm)
	ticketRoutes.POST("/:id/start", h.Ticket.Start)
	ticketRoutes.POST("/:id/resolve", h.Ticket.Resolve)
	ticketRoutes.POST("/:id/close", h.Ticket.Close)
	ticketRoutes.POST("/:id/job-card", h.Ticket.UploadJobCard)
	ticketRoutes.DELETE("/:id/job-card", h.Ticket.DeleteJobCard)
	ticketRoutes.POST("/:id/invoice", h.Ticket.UploadInvoice)
	ticketRoutes.DELETE("/:id/invoice", h.Ticket.DeleteInvoice)
	ticketRoutes.GET("/:id/attachments", h.Ticket.ListAttachments)
	ticketRoutes.POST("/:id/attachments", h.Ticket.AddAttachment)
	ticketRoutes.DELETE("/:id/attachments/:attachmentId", h.Ticket.DeleteAttachment)
	ticketRoutes.POST("/:id/assets", h.Ticket.LinkAsset)
	ticketRoutes.DELETE("/:id/assets/:assetId", h.Ticket.UnlinkAsset)

	assetRoutes := scoped.Group("assets", "/assets").Use(g.Auth, g.Tenant)
	assetRoutes.GET("", h.Asset.List)
	assetRoutes.POST("", h.Asset.Create)
	assetRoutes.GET("/:id", h.Asset.Get)
	assetRoutes.PUT("/:id", h.Asset.Update)
	assetRoutes.DELETE("/:id", h.Asset.Delete)
	assetRoutes.POST("/:id/image", h.Asset.UploadImage)
	assetRoutes.GET("/:id/logs", h.Asset.Logs)

	siteRoutes := scoped.Group("sites", "/sites").Use(g.Auth, g.Tenant)
	siteRoutes.GET("", h.Site.List)
	siteRoutes.POST("", h.Site.Create)
	siteRoutes.GET("/budgets", h.Site.BudgetOverview)
	siteRoutes.GET("/:id", h.Site.Get)
	siteRoutes.PUT("/:id", h.Site.Update)
	siteRoutes.DELETE("/:id", h.Site.Delete)
	siteRoutes.GET("/:id/budgets", h.Site.ListBudgets)
	siteRoutes.POST("/:id/budgets", h.Site.UpsertBudget)
	siteRoutes.GET("/:id/budget-summary", h.Site.BudgetSummary)

	return r.Register(system).
		Register(authRoutes).
		Register(tenantRoutes).
		Register(scoped)
}
