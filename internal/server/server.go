package server

import (
	"strings"
	"time"

	"failboard.id/failboard/internal/config"
	"failboard.id/failboard/internal/events"
	"failboard.id/failboard/internal/middleware"

	adminHttp "failboard.id/failboard/internal/modules/admin/delivery/http"

	badgeHttp "failboard.id/failboard/internal/modules/badge/delivery/http"
	badgeRepo "failboard.id/failboard/internal/modules/badge/repository"
	badgeService "failboard.id/failboard/internal/modules/badge/service"

	categoryHttp "failboard.id/failboard/internal/modules/category/delivery/http"
	categoryRepo "failboard.id/failboard/internal/modules/category/repository"
	categoryService "failboard.id/failboard/internal/modules/category/service"

	commentHttp "failboard.id/failboard/internal/modules/comment/delivery/http"
	commentRepo "failboard.id/failboard/internal/modules/comment/repository"
	commentService "failboard.id/failboard/internal/modules/comment/service"

	failHttp "failboard.id/failboard/internal/modules/fail/delivery/http"
	failRepo "failboard.id/failboard/internal/modules/fail/repository"
	failService "failboard.id/failboard/internal/modules/fail/service"

	integrityHttp "failboard.id/failboard/internal/modules/integrity/delivery/http"
	integrityRepo "failboard.id/failboard/internal/modules/integrity/repository"
	integrityService "failboard.id/failboard/internal/modules/integrity/service"

	leaderboardHttp "failboard.id/failboard/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "failboard.id/failboard/internal/modules/leaderboard/repository"
	leaderboardService "failboard.id/failboard/internal/modules/leaderboard/service"

	notiHttp "failboard.id/failboard/internal/modules/notification/delivery/http"
	notifRepo "failboard.id/failboard/internal/modules/notification/repository"
	notifService "failboard.id/failboard/internal/modules/notification/service"

	profileHttp "failboard.id/failboard/internal/modules/profile/delivery/http"
	profileService "failboard.id/failboard/internal/modules/profile/service"

	reactionHttp "failboard.id/failboard/internal/modules/reaction/delivery/http"
	reactionRepo "failboard.id/failboard/internal/modules/reaction/repository"
	reactionService "failboard.id/failboard/internal/modules/reaction/service"

	searchService "failboard.id/failboard/internal/modules/search/service"

	userHttp "failboard.id/failboard/internal/modules/user/delivery/http"
	userRepo "failboard.id/failboard/internal/modules/user/repository"
	userService "failboard.id/failboard/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	bus         *events.Bus
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	bus := events.NewBus()

	users := userRepo.NewUserRepository(db)

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	meiliSvc := searchService.NewSearchService(meiliClient)

	authSvc := userService.NewAuthService(users, meiliSvc)
	authHandler := userHttp.NewAuthHandler(authSvc)

	categories := categoryRepo.NewCategoryRepository(db)
	categorySvc := categoryService.NewCategoryService(categories)
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	// Notification module
	notifications := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notifications, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	// Courage points and leaderboard
	leaderboards := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboards, notificationSvc)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	// Reactions
	reactions := reactionRepo.NewReactionRepository(db)
	reactionSvc := reactionService.NewReactionService(reactions, redisClient, leaderboardSvc, notificationSvc, bus)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	// Fails
	fails := failRepo.NewFailRepository(db)
	viewSvc := failService.NewViewService(redisClient, fails)
	if redisClient != nil {
		viewSvc.StartViewSyncWorker(time.Minute)
	}
	failSvc := failService.NewFailService(fails, reactionSvc, leaderboardSvc, meiliSvc, viewSvc, bus)
	failHandler := failHttp.NewFailHandler(failSvc)

	// Comments
	comments := commentRepo.NewCommentRepository(db)
	commentSvc := commentService.NewCommentService(comments, leaderboardSvc, notificationSvc, bus)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	// Badge engine
	badges := badgeRepo.NewBadgeRepository(db)
	stats := badgeRepo.NewStatsRepository(db)
	catalog := badgeService.NewCatalog(badges, redisClient, cfg.BadgeCatalogTTL)
	aggregator := badgeService.NewStatsAggregator(stats, badges)
	cooldown := badgeService.NewCooldown(cfg.BadgeCooldownWindow)
	badgeSvc := badgeService.NewBadgeService(badges, catalog, aggregator, cooldown, notificationSvc, bus)
	badgeHandler := badgeHttp.NewBadgeHandler(badgeSvc)

	// Every activity event feeds the badge engine, gated by the cooldown.
	bus.Subscribe(events.FailCreated, badgeSvc.HandleActivity)
	bus.Subscribe(events.CommentCreated, badgeSvc.HandleActivity)
	bus.Subscribe(events.ReactionGiven, badgeSvc.HandleActivity)

	// Integrity engine (admin-triggered)
	integrity := integrityRepo.NewIntegrityRepository(db)
	integritySvc := integrityService.NewIntegrityService(integrity, redisClient)
	integrityHandler := integrityHttp.NewIntegrityHandler(integritySvc)

	profileSvc := profileService.NewProfileService(users, leaderboardSvc, badgeSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	adminHandler := adminHttp.NewAdminHandler(users)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/categories", categoryHandler.GetAllCategories)
		public.GET("/fails", failHandler.ListFails)
		public.GET("/fails/slug/:slug", failHandler.GetFail)
		public.GET("/fails/:id/comments", commentHandler.GetComments)
		public.GET("/fails/:id/reactions", reactionHandler.GetReactions)
		public.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		public.GET("/profile/:username", profileHandler.GetProfile)
		public.GET("/badges", badgeHandler.ListBadges)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/fails", failHandler.CreateFail)
		protected.PUT("/fails/:id", failHandler.UpdateFail)
		protected.DELETE("/fails/:id", failHandler.DeleteFail)

		protected.POST("/fails/:id/comments", commentHandler.CreateComment)
		protected.DELETE("/comments/:id", commentHandler.DeleteComment)

		protected.POST("/fails/:id/reactions", reactionHandler.ToggleReaction)

		protected.POST("/badges/check", badgeHandler.CheckBadges)
		protected.GET("/badges/challenges", badgeHandler.NextChallenges)

		protected.PUT("/profile", profileHandler.UpdateProfile)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.GET("/users/:id/badges", badgeHandler.GetUserBadges)
			adminGroup.POST("/users/:id/badges/check", badgeHandler.ForceCheckUser)

			adminGroup.POST("/badges", badgeHandler.CreateBadge)
			adminGroup.PUT("/badges/:id", badgeHandler.UpdateBadge)
			adminGroup.DELETE("/badges/:id", badgeHandler.DeleteBadge)

			adminGroup.POST("/categories", categoryHandler.CreateCategory)
			adminGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)

			adminGroup.DELETE("/fails/:id", failHandler.AdminDeleteFail)

			adminGroup.GET("/integrity", integrityHandler.Analyze)
			adminGroup.POST("/integrity/repair", integrityHandler.RepairAll)
			adminGroup.POST("/integrity/repair/:id", integrityHandler.RepairFail)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		bus:         bus,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
