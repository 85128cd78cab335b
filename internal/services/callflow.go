package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ananth-NQI/callbook-backend/internal/metrics"
	"github.com/Ananth-NQI/callbook-backend/internal/models"
	"github.com/Ananth-NQI/callbook-backend/internal/storage"
	"github.com/Ananth-NQI/callbook-backend/pkg/logging"
)

// Step names, used for logs, metrics and spans
const (
	StepStart  = "start"
	StepName   = "name"
	StepDate   = "date"
	StepTime   = "time"
	StepReason = "reason"
)

// Turn outcomes
const (
	OutcomePrompted   = "prompted"
	OutcomeAdvanced   = "advanced"
	OutcomeReprompted = "reprompted"
	OutcomeConfirmed  = "confirmed"
	OutcomeNotFound   = "not_found"
	OutcomeStoreError = "store_error"
)

// Caller-facing prompts
const (
	PromptGreeting      = "Hello! This is your AI assistant. Please tell me your name to book an appointment."
	PromptNameRetry     = "Sorry, I didn't catch that. Please say your name again."
	PromptAskDate       = "Nice to meet you %s! On what date would you like to schedule your appointment?"
	PromptDateRetry     = "Sorry, could you please repeat the date?"
	PromptAskTime       = "Got it. What time on %s would you prefer?"
	PromptTimeRetry     = "Sorry, please say the time again."
	PromptAskReason     = "Okay, %s works. Could you please tell me the reason for your appointment?"
	PromptReasonRetry   = "Sorry, could you repeat the reason again?"
	PromptConfirmed     = "Thank you %s. Your appointment has been booked on %s at %s for %s. Have a great day!"
	PromptConfirmFailed = "Sorry, there was a problem confirming your appointment."
	PromptStoreFailure  = "Sorry, we're having trouble booking your appointment right now. Please try again later."
)

var tracer = otel.Tracer("github.com/Ananth-NQI/callbook-backend/internal/services")

// Turn is one request/response exchange with the caller
type Turn struct {
	// Utterance is the speech transcript; empty when nothing was heard
	Utterance string
	// AppointmentID is the correlation id from the callback URL
	AppointmentID string
	// Caller is the caller's phone number when Twilio supplies it
	Caller string
}

// ConfirmationSender delivers a booking summary to the caller outside the call
type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, to string, appt *models.Appointment) error
}

// CallFlowConfig wires the call flow's collaborators
type CallFlowConfig struct {
	Store    storage.Store
	Dates    *DateNormalizer
	Notifier ConfirmationSender
	Metrics  *metrics.CallFlowMetrics
	Logger   *logging.Logger
}

// CallFlow implements the booking conversation:
// start -> name -> date -> time -> reason -> confirmed.
// Each method handles one step; continuity between steps travels only in the
// appointment id attached to callback URLs and in the store.
type CallFlow struct {
	store    storage.Store
	dates    *DateNormalizer
	notifier ConfirmationSender
	metrics  *metrics.CallFlowMetrics
	logger   *logging.Logger
}

// NewCallFlow creates the call flow
func NewCallFlow(cfg CallFlowConfig) *CallFlow {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Dates == nil {
		cfg.Dates = NewDateNormalizer(time.UTC)
	}
	return &CallFlow{
		store:    cfg.Store,
		dates:    cfg.Dates,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Start greets the caller and asks for a name. Silence loops back here.
func (f *CallFlow) Start(ctx context.Context) Instruction {
	_, done := f.begin(ctx, StepStart, Turn{})
	defer done(OutcomePrompted, nil)

	return Instruction{
		Prompt:   PromptGreeting,
		Gather:   To(PathName),
		Redirect: To(PathStart),
	}
}

// CollectName creates the appointment record and asks for a date
func (f *CallFlow) CollectName(ctx context.Context, turn Turn) Instruction {
	ctx, done := f.begin(ctx, StepName, turn)

	name := strings.TrimSpace(turn.Utterance)
	if name == "" {
		// No record exists yet, so the retry restarts without an id
		done(OutcomeReprompted, nil)
		return Instruction{Prompt: PromptNameRetry, Redirect: To(PathStart)}
	}

	id, err := f.store.CreateAppointment(ctx, name)
	if err != nil {
		done(OutcomeStoreError, err)
		return f.storeFailure()
	}

	f.logger.Info("appointment created", "appointment_id", id, "step", StepName)
	done(OutcomeAdvanced, nil)
	return f.ask(fmt.Sprintf(PromptAskDate, name), PathDate, id)
}

// CollectDate normalizes the spoken date, stores it and asks for a time
func (f *CallFlow) CollectDate(ctx context.Context, turn Turn) Instruction {
	ctx, done := f.begin(ctx, StepDate, turn)

	id := strings.TrimSpace(turn.AppointmentID)
	text := strings.TrimSpace(turn.Utterance)
	retry := f.ask(PromptDateRetry, PathDate, id)
	if text == "" || id == "" {
		done(OutcomeReprompted, nil)
		return retry
	}

	date, err := f.dates.Normalize(text)
	if err != nil {
		f.logger.Debug("date not understood", "appointment_id", id, "utterance", text, "error", err)
		done(OutcomeReprompted, nil)
		return retry
	}
	canonical := FormatDate(date)

	if err := f.store.UpdateAppointmentField(ctx, id, models.FieldDate, canonical); err != nil {
		if errors.Is(err, storage.ErrAppointmentNotFound) {
			done(OutcomeNotFound, nil)
			return retry
		}
		done(OutcomeStoreError, err)
		return f.storeFailure()
	}

	done(OutcomeAdvanced, nil)
	return f.ask(fmt.Sprintf(PromptAskTime, SpokenDate(canonical)), PathTime, id)
}

// CollectTime stores the caller's time as spoken and asks for the reason
func (f *CallFlow) CollectTime(ctx context.Context, turn Turn) Instruction {
	ctx, done := f.begin(ctx, StepTime, turn)

	id := strings.TrimSpace(turn.AppointmentID)
	text := strings.TrimSpace(turn.Utterance)
	retry := f.ask(PromptTimeRetry, PathTime, id)
	if text == "" || id == "" {
		done(OutcomeReprompted, nil)
		return retry
	}

	if err := f.store.UpdateAppointmentField(ctx, id, models.FieldTime, text); err != nil {
		if errors.Is(err, storage.ErrAppointmentNotFound) {
			done(OutcomeNotFound, nil)
			return retry
		}
		done(OutcomeStoreError, err)
		return f.storeFailure()
	}

	done(OutcomeAdvanced, nil)
	return f.ask(fmt.Sprintf(PromptAskReason, text), PathReason, id)
}

// CollectReason stores the reason, reads the booking back and confirms it.
// Both the confirmation and the not-found apology end the call.
func (f *CallFlow) CollectReason(ctx context.Context, turn Turn) Instruction {
	ctx, done := f.begin(ctx, StepReason, turn)

	id := strings.TrimSpace(turn.AppointmentID)
	text := strings.TrimSpace(turn.Utterance)
	if text == "" || id == "" {
		done(OutcomeReprompted, nil)
		return f.ask(PromptReasonRetry, PathReason, id)
	}

	err := f.store.UpdateAppointmentField(ctx, id, models.FieldReason, text)
	if err != nil && !errors.Is(err, storage.ErrAppointmentNotFound) {
		done(OutcomeStoreError, err)
		return f.storeFailure()
	}

	appt, err := f.store.GetAppointment(ctx, id)
	if errors.Is(err, storage.ErrAppointmentNotFound) {
		f.logger.Warn("appointment missing at confirmation", "appointment_id", id)
		f.metrics.ObserveBooking("failed")
		done(OutcomeNotFound, nil)
		return Instruction{Prompt: PromptConfirmFailed}
	}
	if err != nil {
		done(OutcomeStoreError, err)
		return f.storeFailure()
	}

	f.notify(ctx, turn.Caller, appt)
	f.logger.Info("appointment booked",
		"appointment_id", id,
		"date", appt.Date,
		"time", appt.Time,
	)
	f.metrics.ObserveBooking("booked")
	done(OutcomeConfirmed, nil)

	return Instruction{
		Prompt: fmt.Sprintf(PromptConfirmed, appt.Name, SpokenDate(appt.Date), appt.Time, appt.Reason),
	}
}

// ask speaks a prompt and listens for the answer on path. If the caller says
// nothing the redirect re-enters the same step with an empty utterance.
func (f *CallFlow) ask(prompt, path, id string) Instruction {
	next := ToAppointment(path, id)
	return Instruction{Prompt: prompt, Gather: next, Redirect: next}
}

func (f *CallFlow) storeFailure() Instruction {
	f.metrics.ObserveBooking("failed")
	return Instruction{Prompt: PromptStoreFailure}
}

func (f *CallFlow) notify(ctx context.Context, caller string, appt *models.Appointment) {
	if f.notifier == nil || caller == "" {
		return
	}
	if err := f.notifier.SendBookingConfirmation(ctx, caller, appt); err != nil {
		f.logger.Warn("booking confirmation not sent", "appointment_id", appt.AppointmentID(), "error", err)
	}
}

// begin opens the step span; the returned func records the outcome
func (f *CallFlow) begin(ctx context.Context, step string, turn Turn) (context.Context, func(outcome string, err error)) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "callflow."+step, trace.WithAttributes(
		attribute.String("callflow.step", step),
		attribute.String("appointment.id", turn.AppointmentID),
		attribute.Bool("callflow.heard_speech", strings.TrimSpace(turn.Utterance) != ""),
	))

	return ctx, func(outcome string, err error) {
		span.SetAttributes(attribute.String("callflow.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			f.logger.Error("call flow step failed",
				"step", step,
				"appointment_id", turn.AppointmentID,
				"error", err,
			)
		}
		span.End()

		f.metrics.ObserveTurn(step, outcome)
		f.metrics.ObserveStepLatency(step, time.Since(started).Seconds())
	}
}
