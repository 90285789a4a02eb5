// Package httpapi serves the router over HTTP.
package httpapi

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jsoniter "github.com/json-iterator/go"

	"voxrouter/internal/router"
	"voxrouter/internal/tools"
)

type Router interface {
	HandleWith(ctx context.Context, text string, opts router.ParseOptions) (router.VoiceCommand, router.CommandResponse)
	ParseWith(ctx context.Context, text string, opts router.ParseOptions) router.VoiceCommand
	History(limit int) []router.HistoryEntry
	SetContext(key string, value any)
	ContextSnapshot() map[string]any
	ClearContext()
}

type Lister interface {
	List() []tools.Descriptor
}

type CommandRequest struct {
	Text  string `json:"text" validate:"required,max=1000"`
	UseAI *bool  `json:"use_ai"`
}

func (r CommandRequest) options() router.ParseOptions {
	return router.ParseOptions{DisableAI: r.UseAI != nil && !*r.UseAI}
}

type CommandReply struct {
	Command  router.VoiceCommand    `json:"command"`
	Response router.CommandResponse `json:"response"`
}

type ContextRequest struct {
	Value any `json:"value"`
}

type Handler struct {
	router    Router
	tools     Lister
	validator *validator.Validate
	timeout   time.Duration
}

func New(r Router, l Lister, timeout time.Duration) *Handler {
	return &Handler{
		router:    r,
		tools:     l,
		validator: validator.New(),
		timeout:   timeout,
	}
}

func NewFiber() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "voxrouter",
		BodyLimit:             1024 * 1024,
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})
}

// App returns a fiber app with every route mounted.
func (h *Handler) App() *fiber.App {
	app := NewFiber()
	app.Use(recover.New())
	app.Use(requestid.New())
	h.Start(app)
	return app
}

func (h *Handler) Start(srv fiber.Router) {
	v1 := srv.Group("/v1")
	v1.Post("/commands", h.HandleCommand)
	v1.Post("/parse", h.HandleParse)
	v1.Get("/tools", h.HandleTools)
	v1.Get("/history", h.HandleHistory)

	v1.Get("/context", h.HandleGetContext)
	v1.Put("/context/:key", h.HandleSetContext)
	v1.Delete("/context", h.HandleClearContext)
}

func (h *Handler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.UserContext(), h.timeout)
	}
	return context.WithCancel(c.UserContext())
}

func (h *Handler) HandleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "parse_request_body", err)
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	cmd, resp := h.router.HandleWith(ctx, req.Text, req.options())
	log.Info("HTTP command", "request_id", requestID(c), "intent", cmd.Intent, "success", resp.Success)

	return c.Status(fiber.StatusOK).JSON(CommandReply{Command: cmd, Response: resp})
}

func (h *Handler) HandleParse(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "parse_request_body", err)
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	return c.Status(fiber.StatusOK).JSON(h.router.ParseWith(ctx, req.Text, req.options()))
}

func (h *Handler) HandleTools(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"tools": h.tools.List()})
}

func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must not be negative",
			"code":  "VALIDATION_ERROR",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"history": h.router.History(limit)})
}

func (h *Handler) HandleGetContext(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"context": h.router.ContextSnapshot()})
}

func (h *Handler) HandleSetContext(c *fiber.Ctx) error {
	var req ContextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "parse_request_body", err)
	}
	if req.Value == nil {
		return validationFailed(c, errors.New("value is required"))
	}

	h.router.SetContext(c.Params("key"), req.Value)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) HandleClearContext(c *fiber.Ctx) error {
	h.router.ClearContext()
	return c.SendStatus(fiber.StatusNoContent)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}

func badRequest(c *fiber.Ctx, op string, err error) error {
	log.Warn("Bad request", "request_id", requestID(c), "path", c.Path(), "operation", op, "err", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "BAD_REQUEST"})
}

func validationFailed(c *fiber.Ctx, err error) error {
	log.Warn("Validation failed", "request_id", requestID(c), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}
