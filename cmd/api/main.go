package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/pharmhq/pharmacy-backend/api/routes"
	"github.com/pharmhq/pharmacy-backend/internal/auth"
	"github.com/pharmhq/pharmacy-backend/internal/branches"
	"github.com/pharmhq/pharmacy-backend/internal/invites"
	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	"github.com/pharmhq/pharmacy-backend/internal/notifications"
	"github.com/pharmhq/pharmacy-backend/internal/orgs"
	"github.com/pharmhq/pharmacy-backend/internal/pos"
	"github.com/pharmhq/pharmacy-backend/internal/products"
	"github.com/pharmhq/pharmacy-backend/internal/staff"
	"github.com/pharmhq/pharmacy-backend/internal/users"
	"github.com/pharmhq/pharmacy-backend/pkg/auth/session"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/db"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
	"github.com/pharmhq/pharmacy-backend/pkg/migrate"
	"github.com/pharmhq/pharmacy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	membershipRepo := memberships.NewRepository(dbClient.DB())
	orgRepo := orgs.NewRepository(dbClient.DB())
	branchRepo := branches.NewRepository(dbClient.DB())
	staffRepo := staff.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	inviteRepo := invites.NewRepository(dbClient.DB())
	posRepo := pos.NewRepository(dbClient.DB())

	resolver, err := memberships.NewResolver(memberships.ResolverParams{
		MembershipRepo: membershipRepo,
		OrgRepo:        orgRepo,
		UserRepo:       userRepo,
		TxRunner:       dbClient,
		Logger:         logg,
		PersistLegacy:  cfg.FeatureFlags.PersistLegacyProfiles,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create membership resolver", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Resolver:       resolver,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	switchService, err := auth.NewSwitchOrgService(auth.SwitchOrgServiceParams{
		MembershipsRepo: membershipRepo,
		SessionManager:  sessionManager,
		UserRepo:        userRepo,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create switch-org service", err)
		os.Exit(1)
	}

	mailer, err := notifications.NewMailer(notifications.MailerParams{
		Config: cfg.Sendgrid,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	inviteService, err := invites.NewService(invites.ServiceParams{
		Repo:        inviteRepo,
		Users:       userRepo,
		Memberships: membershipRepo,
		Orgs:        orgRepo,
		Mailer:      mailer,
		Logger:      logg,
		Config:      cfg.Invites,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invite service", err)
		os.Exit(1)
	}

	acceptance, err := invites.NewAcceptanceWorkflow(invites.AcceptanceWorkflowParams{
		InviteRepo:     inviteRepo,
		MembershipRepo: membershipRepo,
		ProfileRepo:    staffRepo,
		UserRepo:       userRepo,
		TxRunner:       dbClient,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invite acceptance workflow", err)
		os.Exit(1)
	}

	orgService, err := orgs.NewService(orgs.ServiceParams{Repo: orgRepo, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create org service", err)
		os.Exit(1)
	}

	branchService, err := branches.NewService(branches.ServiceParams{Repo: branchRepo, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create branch service", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staff.ServiceParams{Repo: staffRepo, TxRunner: dbClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create staff service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:     productRepo,
		Branches: branchRepo,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	posService, err := pos.NewService(pos.ServiceParams{
		Repo:     posRepo,
		Products: productRepo,
		Orgs:     orgRepo,
		Branches: branchRepo,
		TxRunner: dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pos service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			SessionChecker:  sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			SwitchService:   switchService,
			InviteService:   inviteService,
			Acceptance:      acceptance,
			OrgService:      orgService,
			BranchService:   branchService,
			StaffService:    staffService,
			ProductService:  productService,
			POSService:      posService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
