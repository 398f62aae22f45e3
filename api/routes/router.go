package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmhq/pharmacy-backend/api/controllers"
	"github.com/pharmhq/pharmacy-backend/api/middleware"
	"github.com/pharmhq/pharmacy-backend/internal/auth"
	"github.com/pharmhq/pharmacy-backend/internal/branches"
	"github.com/pharmhq/pharmacy-backend/internal/invites"
	"github.com/pharmhq/pharmacy-backend/internal/orgs"
	"github.com/pharmhq/pharmacy-backend/internal/pos"
	"github.com/pharmhq/pharmacy-backend/internal/products"
	"github.com/pharmhq/pharmacy-backend/internal/staff"
	"github.com/pharmhq/pharmacy-backend/pkg/auth/session"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/db"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
	"github.com/pharmhq/pharmacy-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	SessionChecker session.Checker

	AuthService     auth.Service
	RegisterService auth.RegisterService
	SwitchService   auth.SwitchOrgService
	InviteService   invites.Service
	Acceptance      *invites.AcceptanceWorkflow
	OrgService      orgs.Service
	BranchService   branches.Service
	StaffService    staff.Service
	ProductService  products.Service
	POSService      pos.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	// The invite preview is deliberately public: recipients check what they
	// were invited to before creating an account or logging in.
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/invites/lookup", controllers.InviteLookup(p.InviteService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))

		// Reachable without an active organization: fresh registrations and
		// invite recipients operate here first.
		r.Post("/auth/logout", controllers.AuthLogout(p.AuthService, logg))
		r.Get("/auth/me", controllers.SessionMe(p.AuthService, logg))
		r.Post("/auth/switch-org", controllers.AuthSwitchOrg(p.SwitchService, logg))
		r.Post("/invites/accept", controllers.InviteAccept(p.Acceptance, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OrgContext(logg))

			r.Route("/organization", func(r chi.Router) {
				r.Get("/", controllers.OrgProfile(p.OrgService, logg))
				r.With(middleware.RequireStaffManager(logg)).Patch("/", controllers.OrgUpdate(p.OrgService, logg))
			})

			r.Route("/branches", func(r chi.Router) {
				r.Get("/", controllers.BranchList(p.BranchService, logg))
				r.Get("/{branchId}", controllers.BranchDetail(p.BranchService, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaffManager(logg))
					r.Post("/", controllers.BranchCreate(p.BranchService, logg))
					r.Patch("/{branchId}", controllers.BranchUpdate(p.BranchService, logg))
					r.Delete("/{branchId}", controllers.BranchDelete(p.BranchService, logg))
				})
			})

			r.Route("/invites", func(r chi.Router) {
				r.Use(middleware.RequireStaffManager(logg))
				r.Post("/", controllers.InviteCreate(p.InviteService, logg))
				r.Get("/", controllers.InviteList(p.InviteService, logg))
				r.Post("/{inviteId}/expire", controllers.InviteExpire(p.InviteService, logg))
			})

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", controllers.StaffList(p.StaffService, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaffManager(logg))
					r.Patch("/{userId}", controllers.StaffUpdate(p.StaffService, logg))
					r.Delete("/{userId}", controllers.StaffRemove(p.StaffService, logg))
				})
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(p.ProductService, logg))
				r.Get("/{productId}", controllers.ProductDetail(p.ProductService, logg))
				r.Post("/", controllers.ProductCreate(p.ProductService, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(p.ProductService, logg))
				r.Delete("/{productId}", controllers.ProductDeactivate(p.ProductService, logg))
				r.Post("/{productId}/receive-stock", controllers.ProductReceiveStock(p.ProductService, logg))
			})

			r.Route("/pos/carts", func(r chi.Router) {
				r.Post("/", controllers.CartOpen(p.POSService, logg))
				r.Get("/{cartId}", controllers.CartDetail(p.POSService, logg))
				r.Post("/{cartId}/items", controllers.CartAddItem(p.POSService, logg))
				r.Put("/{cartId}/items", controllers.CartSetQuantity(p.POSService, logg))
				r.Delete("/{cartId}/items/{productId}", controllers.CartRemoveItem(p.POSService, logg))
				r.Post("/{cartId}/checkout", controllers.CartCheckout(p.POSService, logg))
				r.Post("/{cartId}/void", controllers.CartVoid(p.POSService, logg))
			})
		})
	})

	return r
}
