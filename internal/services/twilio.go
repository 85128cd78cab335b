package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/callbook-backend/internal/config"
	"github.com/Ananth-NQI/callbook-backend/internal/models"
	"github.com/Ananth-NQI/callbook-backend/pkg/logging"
)

// ErrTwilioNotConfigured is returned when SMS credentials are missing
var ErrTwilioNotConfigured = errors.New("missing Twilio credentials")

// messageCreator is the slice of the Twilio REST API the service uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService sends SMS booking confirmations to callers
type TwilioService struct {
	api    messageCreator
	from   string
	logger *logging.Logger
}

// NewTwilioService creates a new Twilio service from configuration
func NewTwilioService(cfg *config.Config, logger *logging.Logger) (*TwilioService, error) {
	if !cfg.TwilioConfigured() || cfg.TwilioPhoneNumber == "" {
		return nil, ErrTwilioNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return newTwilioService(client.Api, cfg.TwilioPhoneNumber, logger), nil
}

func newTwilioService(api messageCreator, from string, logger *logging.Logger) *TwilioService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioService{api: api, from: from, logger: logger}
}

// SendSMS sends a plain text message
func (t *TwilioService) SendSMS(to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("sms sent", "sid", sid)
	return nil
}

// SendBookingConfirmation texts the caller a summary of their booking
func (t *TwilioService) SendBookingConfirmation(_ context.Context, to string, appt *models.Appointment) error {
	body := fmt.Sprintf("Hi %s, your appointment is booked for %s at %s (%s). Reference #%s.",
		appt.Name, SpokenDate(appt.Date), appt.Time, appt.Reason, appt.AppointmentID())
	return t.SendSMS(to, body)
}
