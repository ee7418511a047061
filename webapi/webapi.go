// Package webapi provides HTTP handlers and API endpoints for the ledger.
// It is organized into sub-packages for different domains:
// - auth: signup and login
// - account: balances, deposit and withdrawal requests, profit swaps
// - plan: investment tiers and the return calculator
// - investment: contract purchase and listing
// - admin: reconciliation and account management
// - events: server-sent event stream
package webapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/metrics"
	accountweb "github.com/yieldvault/ledger/webapi/account"
	adminweb "github.com/yieldvault/ledger/webapi/admin"
	authweb "github.com/yieldvault/ledger/webapi/auth"
	"github.com/yieldvault/ledger/webapi/common"
	"github.com/yieldvault/ledger/webapi/events"
	investmentweb "github.com/yieldvault/ledger/webapi/investment"
	planweb "github.com/yieldvault/ledger/webapi/plan"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	if rl := app.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          rl.MaxRequests,
			Expiration:   rl.Window,
			KeyGenerator: clientIP,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(countRequests)

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Ledger API is running")
	})
	fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authweb.Routes(fiberApp, app.AuthService)
	accountweb.Routes(fiberApp, app.AccountService, app.AuthService, app.Config)
	planweb.Routes(fiberApp, app.InvestmentService)
	investmentweb.Routes(fiberApp, app.InvestmentService, app.AuthService, app.Config)
	adminweb.Routes(fiberApp, adminweb.Services{
		Admin:      app.AdminService,
		Reconcile:  app.ReconcileService,
		Investment: app.InvestmentService,
		Auth:       app.AuthService,
	}, app.Config)
	events.Routes(fiberApp, events.NewHub(app.Deps.EventBus), app.AuthService, app.Config)
	return fiberApp
}

func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		// Take the first IP in the chain
		if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
			return strings.TrimSpace(forwardedFor[:commaIndex])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}

// countRequests records the matched route template, not the raw path, to
// keep label cardinality bounded.
func countRequests(c *fiber.Ctx) error {
	err := c.Next()
	code := c.Response().StatusCode()
	var fe *fiber.Error
	if err != nil && errors.As(err, &fe) {
		code = fe.Code
	}
	metrics.HTTPRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(code)).Inc()
	return err
}
