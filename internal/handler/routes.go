package handler

import (
	"bscar/backend/internal/auth"
	"bscar/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under /api/v1 and the upload downloads under
// /uploads. limiter guards the credential and message endpoints; nil
// disables it.
func (h *Handler) RegisterRoutes(router gin.IRouter, users auth.UserLoader, limiter *middleware.RateLimiter) {
	var throttle gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = limiter.Middleware()
	}
	requireUser := auth.AuthMiddleware(users, h.session.Secret)

	router.GET("/uploads/:bucket/:filename", h.GetUpload)

	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		authRoutes.Use(auth.OptionalAuthMiddleware(users, h.session.Secret))
		{
			authRoutes.POST("/register", throttle, h.RegisterUser)
			authRoutes.POST("/login", throttle, h.LoginUser)
			authRoutes.POST("/logout", h.LogoutUser)
		}

		// Everything below needs a session
		protected := apiV1.Group("")
		protected.Use(requireUser)
		{
			protected.GET("/users/me", h.GetMe)
			protected.PUT("/users/me", h.UpdateMe)

			protected.GET("/categories", h.GetCategories)

			listings := protected.Group("/listings")
			{
				listings.GET("", h.GetListings)
				listings.POST("", h.CreateListing)
				listings.GET("/mine", h.GetMyListings)
				listings.GET("/:id", h.GetListingByID)
				listings.PATCH("/:id/status", h.SetListingStatus)
				listings.DELETE("/:id", h.DeleteListing)
				listings.POST("/:id/favorite", h.ToggleFavorite)
				listings.POST("/:id/contact", h.ContactSeller)
				listings.POST("/:id/report", h.ReportListing)
			}

			protected.GET("/favorites", h.GetFavorites)

			chats := protected.Group("/chats")
			{
				chats.GET("", h.GetChats)
				chats.GET("/:id", h.GetChatByID)
				chats.POST("/:id/messages", throttle, h.PostMessage)
				chats.GET("/:id/events", h.StreamChatEvents)
			}

			support := protected.Group("/support")
			{
				support.GET("", h.GetTickets)
				support.POST("", h.CreateTicket)
				support.POST("/:id/reply", h.ReplyTicket)
			}
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(requireUser, auth.AdminMiddleware())
		{
			adminRoutes.GET("/listings", h.AdminGetListings)
			adminRoutes.DELETE("/listings/:id", h.AdminDeleteListing)
			adminRoutes.GET("/complaints", h.AdminGetComplaints)
			adminRoutes.POST("/users/promote", h.PromoteUser)
			adminRoutes.POST("/users/block", h.BlockUser)
			adminRoutes.GET("/actions", h.AdminGetActions)

			categories := adminRoutes.Group("/categories")
			{
				categories.POST("", h.CreateCategory)
				categories.PUT("/:id/parent", h.SetCategoryParent)
			}
		}
	}
}
