package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Ananth-NQI/callbook-backend/internal/services"
)

// Twilio webhook parameters
const (
	SpeechField = "SpeechResult"
	CallerField = "From"
)

// ExtractSpeech returns the transcript for this turn: the form field first,
// then the same field in a JSON body, else "". Absence is never an error.
func ExtractSpeech(c *fiber.Ctx) string {
	if v := formField(c, SpeechField); v != "" {
		return v
	}
	return jsonField(c, SpeechField)
}

// ExtractAppointmentID returns the correlation id from the query string, falling back to the form body.
// The id outlives the request in spans and logs, so it is copied out of fasthttp's buffer.
func ExtractAppointmentID(c *fiber.Ctx) string {
	if v := c.Query(services.CorrelationParam); v != "" {
		return utils.CopyString(v)
	}
	return formField(c, services.CorrelationParam)
}

// ExtractTurn collects everything the call flow needs from one webhook request
func ExtractTurn(c *fiber.Ctx) services.Turn {
	return services.Turn{
		Utterance:     ExtractSpeech(c),
		AppointmentID: ExtractAppointmentID(c),
		Caller:        formField(c, CallerField),
	}
}

func formField(c *fiber.Ctx, key string) string {
	if v := c.Request().PostArgs().Peek(key); len(v) > 0 {
		return string(v)
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value[key]; len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func jsonField(c *fiber.Ctx, key string) string {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '{' {
		return ""
	}

	var payload map[string]any
	if err := c.App().Config().JSONDecoder(body, &payload); err != nil {
		return ""
	}
	v, _ := payload[key].(string)
	return v
}
