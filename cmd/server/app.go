package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/janus-erp/janus/httpx"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/policy"
	"go.uber.org/zap"
)

// App is the main application handler that sets up all routes.
type App struct {
	router    *mux.Router
	routerCfg *policy.RouterConfig
	log       *zap.Logger
}

// NewApp creates a new application with all routes configured.
func NewApp(routerCfg *policy.RouterConfig, log *zap.Logger) *App {
	app := &App{
		router:    mux.NewRouter(),
		routerCfg: routerCfg,
		log:       logging.OrNop(log),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := logging.Middleware(a.log)(a.routerCfg.Issuer.Middleware(a.router))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	r := a.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "Not found.", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	})
	r.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	requireAuth := a.routerCfg.Issuer.RequireAuth

	// Public auth routes
	ah := a.routerCfg.AuthHandler
	authR := api.PathPrefix("/auth").Subrouter()
	authR.HandleFunc("/signup/initiate", ah.SignupInitiate).Methods(http.MethodPost)
	authR.HandleFunc("/signup/verify-otp", ah.SignupVerifyOTP).Methods(http.MethodPost)
	authR.HandleFunc("/signup/set-password", ah.SignupSetPassword).Methods(http.MethodPost)
	authR.HandleFunc("/signin", ah.SignIn).Methods(http.MethodPost)
	authR.HandleFunc("/refresh", ah.Refresh).Methods(http.MethodPost)
	authR.HandleFunc("/forgot-password/initiate", ah.ForgotPasswordInitiate).Methods(http.MethodPost)
	authR.HandleFunc("/forgot-password/verify-otp", ah.ForgotPasswordVerifyOTP).Methods(http.MethodPost)
	authR.HandleFunc("/forgot-password/set-new", ah.ForgotPasswordSetNew).Methods(http.MethodPost)
	authR.HandleFunc("/verify-invite-code", ah.VerifyInviteCode).Methods(http.MethodPost)
	authR.HandleFunc("/invited-user/set-password", ah.InvitedUserSetPassword).Methods(http.MethodPost)
	authR.Handle("/me", requireAuth(http.HandlerFunc(ah.Me))).Methods(http.MethodGet)

	// Authenticated routes
	uh := a.routerCfg.UserHandler
	users := api.PathPrefix("/users").Subrouter()
	users.Use(requireAuth)
	users.HandleFunc("/invite", uh.Invite).Methods(http.MethodPost)
	users.HandleFunc("", uh.List).Methods(http.MethodGet)
	users.HandleFunc("/{id}", uh.Get).Methods(http.MethodGet)
	users.HandleFunc("/{id}", uh.Update).Methods(http.MethodPut)

	rh := a.routerCfg.RoleHandler
	roles := api.PathPrefix("/roles").Subrouter()
	roles.Use(requireAuth)
	roles.HandleFunc("", rh.List).Methods(http.MethodGet)
	roles.HandleFunc("", rh.Create).Methods(http.MethodPost)
	roles.HandleFunc("/{id}", rh.Get).Methods(http.MethodGet)
	roles.HandleFunc("/{id}", rh.Update).Methods(http.MethodPut)
	roles.HandleFunc("/{id}", rh.Delete).Methods(http.MethodDelete)

	ch := a.routerCfg.CatalogHandler
	customers := api.PathPrefix("/customers").Subrouter()
	customers.Use(requireAuth)
	customers.HandleFunc("", ch.ListCustomers).Methods(http.MethodGet)
	customers.HandleFunc("", ch.CreateCustomer).Methods(http.MethodPost)
	customers.HandleFunc("/{id}", ch.GetCustomer).Methods(http.MethodGet)

	products := api.PathPrefix("/products").Subrouter()
	products.Use(requireAuth)
	products.HandleFunc("", ch.ListProducts).Methods(http.MethodGet)
	products.HandleFunc("", ch.CreateProduct).Methods(http.MethodPost)
	products.HandleFunc("/{id}", ch.GetProduct).Methods(http.MethodGet)

	dh := a.routerCfg.DocumentHandler
	docs := api.PathPrefix("/documents").Subrouter()
	docs.Use(requireAuth)
	docs.HandleFunc("", dh.List).Methods(http.MethodGet)
	docs.HandleFunc("", dh.Create).Methods(http.MethodPost)
	docs.HandleFunc("/preview", dh.Preview).Methods(http.MethodPost)
	docs.HandleFunc("/{id}", dh.Get).Methods(http.MethodGet)
}

func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
