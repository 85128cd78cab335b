package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/callbook-backend/internal/services"
	"github.com/Ananth-NQI/callbook-backend/pkg/logging"
)

// VoiceHandler serves the Twilio voice webhooks, one endpoint per call-flow step
type VoiceHandler struct {
	flow     *services.CallFlow
	renderer *services.Renderer
	logger   *logging.Logger
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(flow *services.CallFlow, renderer *services.Renderer, logger *logging.Logger) *VoiceHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceHandler{
		flow:     flow,
		renderer: renderer,
		logger:   logger,
	}
}

// Start handles an incoming call and asks for the caller's name
func (h *VoiceHandler) Start(c *fiber.Ctx) error {
	return h.respond(c, h.flow.Start(c.UserContext()))
}

// HandleName captures the caller's name and asks for a date
func (h *VoiceHandler) HandleName(c *fiber.Ctx) error {
	return h.step(c, h.flow.CollectName)
}

// HandleDate captures the date and asks for a time
func (h *VoiceHandler) HandleDate(c *fiber.Ctx) error {
	return h.step(c, h.flow.CollectDate)
}

// HandleTime captures the time and asks for the reason
func (h *VoiceHandler) HandleTime(c *fiber.Ctx) error {
	return h.step(c, h.flow.CollectTime)
}

// HandleReason captures the reason and confirms the appointment
func (h *VoiceHandler) HandleReason(c *fiber.Ctx) error {
	return h.step(c, h.flow.CollectReason)
}

// Probe answers GET on a step endpoint so the route can be checked from a browser
func Probe(path string) fiber.Handler {
	msg := fmt.Sprintf("✅ %s endpoint reachable (GET for debug)", path)
	return func(c *fiber.Ctx) error {
		return c.SendString(msg)
	}
}

func (h *VoiceHandler) step(c *fiber.Ctx, handle func(context.Context, services.Turn) services.Instruction) error {
	turn := ExtractTurn(c)
	h.logger.Debug("voice turn received",
		"path", c.Path(),
		"appointment_id", turn.AppointmentID,
		"heard_speech", turn.Utterance != "",
		"request_id", c.Locals("requestid"),
	)
	return h.respond(c, handle(c.UserContext(), turn))
}

// respond always answers with TwiML; Twilio cannot act on anything else
func (h *VoiceHandler) respond(c *fiber.Ctx, ins services.Instruction) error {
	doc, err := h.renderer.Render(ins)
	if err != nil {
		h.logger.Error("twiml render failed", "path", c.Path(), "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render response")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextXMLCharsetUTF8)
	return c.SendString(doc)
}
