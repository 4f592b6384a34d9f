package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/app"
	iauth "github.com/rotaiq/rotaiq/internal/auth"
	"github.com/rotaiq/rotaiq/internal/handlers"
	"github.com/rotaiq/rotaiq/internal/middleware"
	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/mail"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Users       *services.UserService
	Invitations *services.InvitationService
	Shifts      *services.ShiftService
	Analytics   *services.AnalyticsService
	Org         *services.OrgService
}

// NewServices wires the domain services from their shared dependencies.
func NewServices(db *gorm.DB, jwt *iauth.JWTService, mailer mail.Mailer, cfg *app.Config) (*Services, error) {
	users, err := services.NewUserService(db, jwt)
	if err != nil {
		return nil, err
	}

	acceptURL := cfg.Server.BaseURL + cfg.Invitations.AcceptURL
	invitations, err := services.NewInvitationService(db, mailer,
		services.WithInvitationAcceptURL(acceptURL))
	if err != nil {
		return nil, err
	}

	shifts, err := services.NewShiftService(db)
	if err != nil {
		return nil, err
	}

	analytics, err := services.NewAnalyticsService(db)
	if err != nil {
		return nil, err
	}

	org, err := services.NewOrgService(db)
	if err != nil {
		return nil, err
	}

	return &Services{
		Users:       users,
		Invitations: invitations,
		Shifts:      shifts,
		Analytics:   analytics,
		Org:         org,
	}, nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svcs *Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs == nil {
		return nil, fmt.Errorf("services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svcs.Users)
	registerHandler := handlers.NewRegisterHandler(svcs.Invitations, svcs.Users)
	invitationHandler := handlers.NewInvitationHandler(svcs.Invitations)
	shiftHandler := handlers.NewShiftHandler(svcs.Shifts)
	claimHandler := handlers.NewClaimHandler(svcs.Shifts)
	userHandler := handlers.NewUserHandler(svcs.Users)
	orgHandler := handlers.NewOrgHandler(svcs.Org)
	analyticsHandler := handlers.NewAnalyticsHandler(svcs.Analytics)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/register", registerHandler.Register)
		public.POST("/register/manager", registerHandler.RegisterManager)
		public.GET("/invitations/details", invitationHandler.Details)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt, db))

	api.GET("/auth/me", authHandler.Me)

	invitations := api.Group("/invitations")
	{
		invitations.POST("", invitationHandler.Create)
		invitations.GET("", invitationHandler.List)
	}

	shifts := api.Group("/shifts")
	{
		shifts.GET("", shiftHandler.List)
		shifts.POST("", shiftHandler.Create)
		shifts.GET("/mine", shiftHandler.Mine)
		shifts.POST("/:id/claim", shiftHandler.Claim)
		shifts.POST("/:id/assign_staff", shiftHandler.AssignStaff)
	}

	claims := api.Group("/claims")
	{
		claims.GET("", claimHandler.List)
		claims.POST("/:id/approve", claimHandler.Approve)
		claims.POST("/:id/decline", claimHandler.Decline)
	}

	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.POST("/change_password", userHandler.ChangePassword)
	}

	api.GET("/branches", orgHandler.ListBranches)
	api.GET("/regions", orgHandler.ListRegions)
	api.POST("/regions", orgHandler.CreateRegion)

	analytics := api.Group("/analytics")
	{
		analytics.GET("/shifts-by-branch", analyticsHandler.ShiftsByBranch)
		analytics.GET("/all-shifts-timeline", analyticsHandler.Timeline)
	}

	return r, nil
}
