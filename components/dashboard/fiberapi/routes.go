package fiberapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/commands"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/httpapi"
	"github.com/codemaster-stack/supamart-dashboard/components/dashboard/queries"
)

// Config wires a Fiber router with the dashboard commands, queries and hooks.
type Config struct {
	Router    fiber.Router
	API       *httpapi.Handlers
	Broadcast *dashboard.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	State   string
	Section string
	Select  string
	Reload  string
	Actions string
	Logout  string
	Sidebar string
	Events  string
}

// Register mounts the dashboard JSON endpoints and the event stream.
func Register(cfg Config) error {
	if cfg.Router == nil {
		return errors.New("fiberapi: router is required")
	}
	if cfg.API == nil {
		return errors.New("fiberapi: handlers are required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/dashboard"
	}
	routes := defaultRouteConfig(cfg.Routes)
	api := cfg.API
	group := cfg.Router.Group(base)

	if api.State != nil {
		group.Get(routes.State, func(c *fiber.Ctx) error {
			view, err := api.State.Query(c.UserContext(), queries.StateInput{})
			if err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(view)
		})
	}
	if api.Section != nil {
		group.Get(routes.Section, func(c *fiber.Ctx) error {
			view, err := api.Section.Query(c.UserContext(), queries.SectionDataInput{SectionID: c.Params("id")})
			if err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(view)
		})
	}
	if api.Select != nil {
		group.Post(routes.Select, func(c *fiber.Ctx) error {
			id := c.Params("id")
			if id == "" {
				return c.Status(fiber.StatusBadRequest).JSON(httpapi.ErrorBody{Message: "section id is required"})
			}
			if err := api.Select.Execute(c.UserContext(), commands.SelectSectionInput{SectionID: id}); err != nil {
				return respondError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	}
	if api.Reload != nil {
		group.Post(routes.Reload, func(c *fiber.Ctx) error {
			if err := api.Reload.Execute(c.UserContext(), commands.ReloadSectionInput{}); err != nil {
				return respondError(c, err)
			}
			return c.SendStatus(fiber.StatusAccepted)
		})
	}
	if api.Action != nil {
		group.Post(routes.Actions, func(c *fiber.Ctx) error {
			var payload dashboard.ActionRequest
			if err := json.Unmarshal(c.Body(), &payload); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(httpapi.ErrorBody{Message: err.Error()})
			}
			var outcome dashboard.ActionOutcome
			input := commands.RunActionInput{Request: payload, Outcome: &outcome}
			if err := api.Action.Execute(requestContext(c), input); err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(outcome)
		})
	}
	if api.Logout != nil {
		group.Post(routes.Logout, func(c *fiber.Ctx) error {
			if err := api.Logout.Execute(requestContext(c), commands.LogoutInput{}); err != nil {
				return respondError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	}
	if api.Sidebar != nil {
		group.Post(routes.Sidebar, func(c *fiber.Ctx) error {
			var open bool
			if err := api.Sidebar.Execute(c.UserContext(), commands.ToggleSidebarInput{Open: &open}); err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"sidebar_open": open})
		})
	}

	broadcast := cfg.Broadcast
	if broadcast == nil {
		broadcast = api.Events
	}
	if broadcast != nil {
		group.Get(routes.Events, streamEvents(broadcast))
	}
	return nil
}

// streamEvents relays section events as Server-Sent Events. The stream ends
// when the subscription closes or a write fails.
func streamEvents(hook *dashboard.BroadcastHook) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		events, cancel := hook.Subscribe()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			if err := w.Flush(); err != nil {
				return
			}
			for event := range events {
				if err := dashboard.WriteSSE(w, event); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		})
		return nil
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if httpapi.Confirmed(c.Get("X-Confirm")) {
		ctx = dashboard.WithConfirmed(ctx)
	}
	return ctx
}

func respondError(c *fiber.Ctx, err error) error {
	status, body := httpapi.ErrorResponse(err)
	return c.Status(status).JSON(body)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.State == "" {
		routes.State = "/state"
	}
	if routes.Section == "" {
		routes.Section = "/sections/:id"
	}
	if routes.Select == "" {
		routes.Select = "/sections/:id/select"
	}
	if routes.Reload == "" {
		routes.Reload = "/reload"
	}
	if routes.Actions == "" {
		routes.Actions = "/actions"
	}
	if routes.Logout == "" {
		routes.Logout = "/logout"
	}
	if routes.Sidebar == "" {
		routes.Sidebar = "/sidebar"
	}
	if routes.Events == "" {
		routes.Events = "/events"
	}
	return routes
}
