package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/middleware"
)

// SetupRoutes configures all application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS, metrics) is applied
// to router by the caller before this function runs.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	services *core.Services,
	authMW *middleware.AuthMiddleware,
) {
	businessHandler := NewBusinessHandler(services.Businesses, services.Credits, logger)
	branchHandler := NewBranchHandler(services.Branches, logger)
	reviewHandler := NewReviewHandler(services.Reviews, logger)
	publicHandler := NewPublicHandler(services, logger)
	paymentHandler := NewPaymentHandler(services.Payments, logger)
	supportHandler := NewSupportHandler(services.Support, logger)
	adminHandler := NewAdminHandler(services.Admin, services.Support, logger)

	apiV1 := router.Group("/api/v1")
	{
		businesses := apiV1.Group("/businesses", authMW.VerifyToken())
		{
			// Called by the business form after sign-up.
			businesses.POST("/register", businessHandler.Register)

			me := businesses.Group("/me")
			me.GET("", businessHandler.Get)
			me.PUT("", businessHandler.Update)
			me.GET("/subscription", businessHandler.Subscription)
			me.GET("/credits", businessHandler.Credits)

			me.GET("/branches", branchHandler.List)
			me.POST("/branches", branchHandler.Create)
			me.PUT("/branches/:branchId", branchHandler.Update)
			me.DELETE("/branches/:branchId", branchHandler.Delete)
			me.POST("/branches/:branchId/share", branchHandler.CreateShareLink)
			me.GET("/links", branchHandler.ListShareLinks)

			me.GET("/reviews", reviewHandler.List)
			me.GET("/reviews/stats", reviewHandler.Stats)
			me.POST("/reviews/:reviewId/reply", reviewHandler.Reply)
			me.DELETE("/reviews/:reviewId", reviewHandler.Delete)
		}

		public := apiV1.Group("/public")
		{
			public.GET("/businesses/:slug", publicHandler.Business)
			public.POST("/businesses/:slug/reviews", publicHandler.SubmitReview)
			public.GET("/links/:linkId", publicHandler.ShareLink)
		}

		apiV1.GET("/pricing", authMW.OptionalToken(), publicHandler.Pricing)

		payment := apiV1.Group("/payment", authMW.VerifyToken())
		{
			payment.POST("/orders", paymentHandler.CreateOrder)
			payment.POST("/confirm", paymentHandler.Confirm)
			payment.GET("/history", paymentHandler.History)
		}

		support := apiV1.Group("/support")
		{
			support.POST("/requests", authMW.OptionalToken(), supportHandler.CreateRequest)
			support.POST("/demo", supportHandler.BookDemo)
			support.POST("/chat/messages", supportHandler.ChatMessage)
			support.POST("/chat/feedback", supportHandler.ChatFeedback)
			support.GET("/chat/:sessionId", supportHandler.ChatTranscript)
		}

		admin := apiV1.Group("/admin", authMW.VerifyToken(), middleware.RequireAdmin(services.Admin, logger))
		{
			admin.GET("/businesses", adminHandler.ListBusinesses)
			admin.GET("/businesses/:uid", adminHandler.GetBusiness)
			admin.PUT("/businesses/:uid/plan", adminHandler.SetPlan)
			admin.PUT("/businesses/:uid/limits", adminHandler.SetLimits)
			admin.POST("/businesses/:uid/credits", adminHandler.GrantCredits)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/support", adminHandler.ListSupport)
			admin.PATCH("/support/:id", adminHandler.UpdateSupport)
			admin.GET("/demos", adminHandler.ListDemos)
			admin.POST("/payments/reconcile", adminHandler.ReconcilePayments)
			admin.POST("/subscriptions/sweep", adminHandler.SweepExpired)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Reviewly backend is healthy."})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("API routes configured successfully under /api/v1, /health and /metrics.")
}
