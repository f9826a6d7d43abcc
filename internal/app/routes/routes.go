package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/controllers"
	"github.com/SF-ND-NEW/miniapp-backend/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	wechatController *controllers.WechatController,
	songController *controllers.SongController,
	adminController *controllers.AdminController,
	playerController *controllers.PlayerController,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/api")

	// --- WeChat miniapp routes ---
	wechat := api.Group("/wechat")
	{
		// Public: login and token refresh
		wechat.POST("/login", wechatController.Login)
		wechat.POST("/refresh", wechatController.Refresh)

		// Authenticated user routes
		wechatAuthed := wechat.Group("")
		wechatAuthed.Use(authMiddleware.UserAuth())
		{
			wechatAuthed.POST("/bind", wechatController.Bind)
			wechatAuthed.GET("/isbound", wechatController.IsBound)
			wechatAuthed.GET("/userinfo", wechatController.UserInfo)
			wechatAuthed.POST("/song/request", wechatController.SubmitSongRequest)
			wechatAuthed.GET("/song/getrequests", wechatController.GetSongRequests)
		}
	}

	// --- Catalog routes (any authenticated user) ---
	songs := api.Group("/songs")
	songs.Use(authMiddleware.UserAuth())
	{
		songs.GET("/search", songController.Search)
		songs.GET("/geturl", songController.GetURL)
	}

	// --- Administration routes ---
	admin := api.Group("/admin")
	{
		admin.POST("/login", adminController.Login)

		adminAuthed := admin.Group("")
		adminAuthed.Use(authMiddleware.AdminAuth())
		{
			adminAuthed.GET("/song/list", adminController.SongList)
			adminAuthed.POST("/song/review", adminController.Review)
		}
	}

	// --- Player routes ---
	player := api.Group("/player")
	{
		player.GET("/queue", playerController.Queue)
		player.GET("/current", playerController.Current)
		player.POST("/played", playerController.Played)
	}
}
