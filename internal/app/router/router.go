// Package router wires HTTP routes and middleware.
package router

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	authhandler "auth_backend/internal/feature/auth/transport/handler"
	"auth_backend/internal/feature/auth/transport/http/dto"
	authmw "auth_backend/internal/feature/auth/transport/middleware"
	"auth_backend/internal/platform/clock"
	infrahandler "auth_backend/internal/platform/http/handler"
	inframw "auth_backend/internal/platform/http/middleware"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/shared/ratelimiter"
)

// Limiters holds one limiter per rule.
type Limiters struct {
	API            *ratelimiter.RateLimiter
	Login          *ratelimiter.RateLimiter
	Register       *ratelimiter.RateLimiter
	ForgotPassword *ratelimiter.RateLimiter
}

// NewLimiters creates the default limiters over a shared store.
func NewLimiters(store ratelimiter.Store, clk clock.Clock) Limiters {
	return Limiters{
		API:            ratelimiter.NewRateLimiter(ratelimiter.APIRule, store, clk),
		Login:          ratelimiter.NewRateLimiter(ratelimiter.LoginRule, store, clk),
		Register:       ratelimiter.NewRateLimiter(ratelimiter.RegisterRule, store, clk),
		ForgotPassword: ratelimiter.NewRateLimiter(ratelimiter.ForgotPasswordRule, store, clk),
	}
}

// Deps are the components the router mounts.
type Deps struct {
	Auth     *authhandler.AuthHandler
	Sessions authmw.SessionAuthenticator
	Limiters Limiters
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Health   map[string]infrahandler.Check

	// Production restricts CORS to AllowedOrigins.
	Production bool
	// TrustedProxies are the proxy addresses or CIDRs whose X-Forwarded-For is
	// believed. Empty means the peer address is the client address.
	TrustedProxies []string
	AllowedOrigins []string
	StaticDir      string
	MaxBodyBytes   int64
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	// レートリミットのキーになるため、信頼するプロキシ以外の転送ヘッダは無視する
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("trusted_proxies", d.TrustedProxies).Wrapf(err, "invalid TRUSTED_PROXIES")
	}
	r.Use(gin.Recovery())
	if d.Logger != nil {
		r.Use(inframw.RequestLogger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(inframw.SecurityHeaders())
	if mw := corsMiddleware(d.Production, d.AllowedOrigins); mw != nil {
		r.Use(mw)
	}
	if d.MaxBodyBytes > 0 {
		r.Use(inframw.BodyLimit(d.MaxBodyBytes))
	}

	// 導通確認用
	health := infrahandler.Health(d.Health)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	var rec ratelimiter.Recorder
	if d.Metrics != nil {
		rec = d.Metrics
	}

	api := r.Group("/api")
	api.Use(ratelimiter.Middleware(d.Limiters.API, rec))

	auth := api.Group("/auth")
	{
		auth.POST("/register", ratelimiter.Middleware(d.Limiters.Register, rec), d.Auth.Register)
		auth.POST("/login", ratelimiter.Middleware(d.Limiters.Login, rec), d.Auth.Login)
		auth.POST("/forgotpassword", ratelimiter.Middleware(d.Limiters.ForgotPassword, rec), d.Auth.ForgotPassword)
		auth.PUT("/resetpassword/:resettoken", d.Auth.ResetPassword)
	}

	// 認証必須のルート
	protected := auth.Group("")
	protected.Use(authmw.RequireSession(d.Sessions))
	{
		protected.GET("/logout", d.Auth.Logout)
		protected.GET("/me", d.Auth.Me)
	}

	r.NoRoute(spaFallback(d.StaticDir))
	return r, nil
}

// corsMiddleware allows any origin with credentials in development. In
// production only the configured origins are allowed; with none configured
// the SPA is same-origin and no CORS headers are sent.
func corsMiddleware(production bool, origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if !production {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cors.New(cfg)
	}
	if len(origins) == 0 {
		return nil
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

// spaFallback serves files from dir, and index.html for any other non-API
// path so that client-side routes such as /resetpassword/:token load the app.
// Unknown API paths get a JSON 404.
func spaFallback(dir string) gin.HandlerFunc {
	fs := http.Dir(dir)
	index := filepath.Join(dir, "index.html")

	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, dto.NewErrorRes("Not found"))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, dto.NewErrorRes("Not found"))
			return
		}

		clean := path.Clean("/" + p)
		if clean != "/" && clean != "/index.html" {
			if f, err := fs.Open(clean); err == nil {
				st, statErr := f.Stat()
				_ = f.Close()
				if statErr == nil && !st.IsDir() {
					c.FileFromFS(clean, fs)
					return
				}
			}
		}

		shell, err := os.ReadFile(index)
		if err != nil {
			c.JSON(http.StatusNotFound, dto.NewErrorRes("Not found"))
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/html; charset=utf-8", shell)
	}
}
