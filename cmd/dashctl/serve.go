package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/commands"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/fiberapi"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/httpapi"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/queries"
)

type serveCmd struct {
	Addr     string `help:"Listen address (defaults to server.addr)."`
	BasePath string `default:"/dashboard" help:"Path prefix for dashboard routes."`
	Section  string `help:"Section to activate on boot."`
	Origins  string `default:"*" help:"Allowed CORS origins."`
}

// Run boots one controller for the stored session and serves it. Confirmation
// travels with each request as an X-Confirm header.
func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	log := rt.logger.Named("serve")

	hook := dashboard.NewBroadcastHook()
	opts := rt.controllerOptions(nil, dashboard.ContextPrompter, loggingRedirector{logger: log})
	opts.Hook = hook
	ctrl := dashboard.NewController(opts)
	if err := ctrl.Boot(ctx, cmd.Section); err != nil {
		return err
	}

	handlers := buildHandlers(ctrl, rt.telemetry, hook)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cmd.Origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Confirm",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	if err := fiberapi.Register(fiberapi.Config{Router: app, API: handlers, Broadcast: hook, BasePath: cmd.BasePath}); err != nil {
		return err
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{})))

	addr := cmd.Addr
	if addr == "" {
		addr = rt.cfg.Server.Addr
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errs := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("base_path", cmd.BasePath))
		errs <- app.Listen(addr)
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildHandlers(ctrl *dashboard.Controller, telemetry dashboard.Telemetry, hook *dashboard.BroadcastHook) *httpapi.Handlers {
	return &httpapi.Handlers{
		Select:  commands.NewSelectSectionCommand(ctrl, telemetry),
		Reload:  commands.NewReloadSectionCommand(ctrl, telemetry),
		Action:  commands.NewRunActionCommand(ctrl, telemetry),
		Logout:  commands.NewLogoutCommand(ctrl, telemetry),
		Sidebar: commands.NewToggleSidebarCommand(ctrl),
		State:   queries.NewStateQuery(ctrl),
		Section: queries.NewSectionDataQuery(ctrl),
		Events:  hook,
	}
}

type loggingRedirector struct {
	logger *zap.Logger
}

func (r loggingRedirector) Redirect(_ context.Context, url string) error {
	r.logger.Info("redirect", zap.String("url", url))
	return nil
}
