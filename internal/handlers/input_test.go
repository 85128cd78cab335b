package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/callbook-backend/internal/services"
)

// echoTurnApp returns the extracted turn as JSON
func echoTurnApp() *fiber.App {
	app := fiber.New()
	app.Post("/turn", func(c *fiber.Ctx) error {
		turn := ExtractTurn(c)
		return c.JSON(fiber.Map{
			"utterance": turn.Utterance,
			"aid":       turn.AppointmentID,
			"caller":    turn.Caller,
		})
	})
	return app
}

func doTurn(t *testing.T, req *http.Request) map[string]string {
	t.Helper()
	resp, err := echoTurnApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, fiber.New().Config().JSONDecoder(body, &out), string(body))
	return out
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func TestExtractTurn_Form(t *testing.T) {
	out := doTurn(t, formRequest("/turn?aid=12", url.Values{
		"SpeechResult": {"next Friday"},
		"From":         {"+15551230000"},
	}))

	assert.Equal(t, "next Friday", out["utterance"])
	assert.Equal(t, "12", out["aid"])
	assert.Equal(t, "+15551230000", out["caller"])
}

func TestExtractTurn_FormCorrelationFallback(t *testing.T) {
	out := doTurn(t, formRequest("/turn", url.Values{
		"SpeechResult":            {"3pm"},
		services.CorrelationParam: {"44"},
	}))

	assert.Equal(t, "44", out["aid"])
}

func TestExtractTurn_QueryWinsOverForm(t *testing.T) {
	out := doTurn(t, formRequest("/turn?aid=1", url.Values{services.CorrelationParam: {"2"}}))

	assert.Equal(t, "1", out["aid"])
}

func TestExtractTurn_Multipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("SpeechResult", "Alex"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/turn", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	out := doTurn(t, req)
	assert.Equal(t, "Alex", out["utterance"])
}

func TestExtractTurn_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/turn?aid=5", strings.NewReader(`{"SpeechResult":"checkup"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	out := doTurn(t, req)
	assert.Equal(t, "checkup", out["utterance"])
	assert.Equal(t, "5", out["aid"])
}

func TestExtractTurn_MissingFieldsAreEmpty(t *testing.T) {
	cases := map[string]*http.Request{
		"no body":         httptest.NewRequest(http.MethodPost, "/turn", nil),
		"empty form":      formRequest("/turn", url.Values{}),
		"json no field":   jsonRequest(`{"Other":"x"}`),
		"json non-string": jsonRequest(`{"SpeechResult":42}`),
		"malformed json":  jsonRequest(`{"SpeechResult":`),
		"plain text":      httptest.NewRequest(http.MethodPost, "/turn", strings.NewReader("hello")),
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			out := doTurn(t, req)
			assert.Equal(t, "", out["utterance"])
			assert.Equal(t, "", out["aid"])
		})
	}
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/turn", strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}
