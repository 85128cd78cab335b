package services

import (
	"fmt"
	"net/url"

	"github.com/twilio/twilio-go/twiml"
)

// Step endpoints. The call flow's current state is implied by which of these
// Twilio posts to; nothing else records it.
const (
	PathStart  = "/voice"
	PathName   = "/handle_name"
	PathDate   = "/handle_date"
	PathTime   = "/handle_time"
	PathReason = "/handle_reason"

	// CorrelationParam carries the appointment id between steps
	CorrelationParam = "aid"
)

// Callback is where Twilio should send the next request
type Callback struct {
	Path          string
	AppointmentID string
	// WithID attaches the correlation parameter even when AppointmentID is empty
	WithID bool
}

// To builds a callback without a correlation id
func To(path string) *Callback {
	return &Callback{Path: path}
}

// ToAppointment builds a callback that threads the appointment id through
func ToAppointment(path, appointmentID string) *Callback {
	return &Callback{Path: path, AppointmentID: appointmentID, WithID: true}
}

// URL renders the callback relative to baseURL
func (c *Callback) URL(baseURL string) string {
	u := baseURL + c.Path
	if c.WithID {
		u += "?" + CorrelationParam + "=" + url.QueryEscape(c.AppointmentID)
	}
	return u
}

// Instruction is what the call flow wants Twilio to do next
type Instruction struct {
	// Prompt is spoken to the caller; empty means no speech
	Prompt string
	// Gather listens for speech after the prompt and posts it here
	Gather *Callback
	// Redirect is followed once the prompt (and any gather) finishes
	Redirect *Callback
}

// Terminal reports whether the call ends after this instruction
func (i Instruction) Terminal() bool {
	return i.Gather == nil && i.Redirect == nil
}

// Renderer turns instructions into TwiML documents
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer. baseURL, when set, makes callback URLs absolute.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: baseURL}
}

// Render produces the TwiML response body for an instruction
func (r *Renderer) Render(ins Instruction) (string, error) {
	var verbs []twiml.Element

	var say *twiml.VoiceSay
	if ins.Prompt != "" {
		say = &twiml.VoiceSay{Message: ins.Prompt}
	}

	switch {
	case ins.Gather != nil:
		gather := &twiml.VoiceGather{
			Input:  "speech",
			Action: ins.Gather.URL(r.baseURL),
			Method: "POST",
		}
		if say != nil {
			gather.InnerElements = []twiml.Element{say}
		}
		verbs = append(verbs, gather)
	case say != nil:
		verbs = append(verbs, say)
	}

	if ins.Redirect != nil {
		verbs = append(verbs, &twiml.VoiceRedirect{
			Url:    ins.Redirect.URL(r.baseURL),
			Method: "POST",
		})
	}

	doc, err := twiml.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("render twiml: %w", err)
	}
	return doc, nil
}
