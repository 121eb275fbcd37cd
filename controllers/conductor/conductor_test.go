package conductor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nazigi-sms/config"
	"nazigi-sms/database"
	httpServices "nazigi-sms/httpServices/africastalking"
	"nazigi-sms/logger"
	"nazigi-sms/middleware"
	broadcastModel "nazigi-sms/models/broadcast"
	responseModel "nazigi-sms/models/response"
	"nazigi-sms/models/smslog"
	passengerStore "nazigi-sms/services/passenger"
	smsService "nazigi-sms/services/sms"
	"nazigi-sms/services/stops"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fakeTransport struct {
	err            error
	calls          int
	lastRecipients []string
	lastMessage    string
}

func (f *fakeTransport) Send(message string, recipients []string, senderID string) (*httpServices.SendResponse, error) {
	f.calls++
	f.lastRecipients = recipients
	f.lastMessage = message

	if f.err != nil {
		return nil, f.err
	}

	recs := make([]httpServices.Recipient, len(recipients))
	for i, r := range recipients {
		recs[i] = httpServices.Recipient{Number: r, Status: "Success", StatusCode: 101}
	}
	return &httpServices.SendResponse{
		SMSMessageData: httpServices.SMSMessageData{Message: "Sent", Recipients: recs},
	}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeTransport, *passengerStore.Store) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		OptInKeyword:      "TEST2",
		ATShortcode:       "20384",
		CountryCodePrefix: "+254",
		ConductorUsername: "admin",
		ConductorPassword: "admin123",
		ServiceName:       "Nazigi Stamford Bus Service",
		BusStops: []string{
			"Ngara", "Allsops", "Homeland", "TRM", "Zimmerman",
			"Githurai 44", "Maziwa", "Kijito", "Kamiti", "Kahawa West Rounda",
		},
	}
	transport := &fakeTransport{}

	gateway := smsService.NewGateway(db, transport, "")
	store := passengerStore.NewStore(db)
	catalog := stops.NewCatalog(cfg.BusStops)
	asyncLogger := logger.NewAsyncLogger(db)

	ctrl := NewConductorController(db, asyncLogger, cfg, catalog, gateway, store)

	app := fiber.New()
	group := app.Group("/conductor", middleware.ConductorAuth(cfg.ConductorUsername, cfg.ConductorPassword))
	group.Post("/send-message", ctrl.SendMessage)
	group.Post("/send-custom", ctrl.SendCustom)
	group.Get("/passengers", ctrl.GetPassengers)
	group.Get("/responses", ctrl.GetResponses)
	group.Get("/messages", ctrl.GetMessages)
	group.Get("/api/stats", ctrl.GetStats)
	group.Get("/dashboard", ctrl.Dashboard)

	return app, db, transport, store
}

func authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:admin123"))
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string, authed bool) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", authHeader())
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]interface{}{}
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func seedPassenger(t *testing.T, store *passengerStore.Store, phone string, optedIn bool) {
	t.Helper()
	p, err := store.GetOrCreatePending(phone)
	require.NoError(t, err)
	if optedIn {
		require.NoError(t, store.SetOptedIn(p, true))
	}
}

func TestUnauthenticatedRequestsGetChallenge(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	resp, body := doRequest(t, app, "GET", "/conductor/passengers", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic realm=")
	assert.Equal(t, "Authentication required", body["error"])
}

func TestWrongCredentialsRejected(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/conductor/passengers", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSendMessageBroadcastsToOptedIn(t *testing.T) {
	app, db, transport, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	seedPassenger(t, store, "+254700000002", true)
	seedPassenger(t, store, "+254700000003", false)

	resp, body := doRequest(t, app, "POST", "/conductor/send-message", `{"message":"Bus leaves at 5pm"}`, true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["recipients_count"])
	assert.NotNil(t, body["message_id"])
	assert.NotNil(t, body["at_response"])

	// Only opted-in passengers receive the broadcast.
	assert.Equal(t, []string{"+254700000001", "+254700000002"}, transport.lastRecipients)

	// The stop menu and call to action are appended.
	assert.Contains(t, transport.lastMessage, "Bus leaves at 5pm")
	assert.Contains(t, transport.lastMessage, "Available stops:")
	assert.Contains(t, transport.lastMessage, "1. Ngara")
	assert.Contains(t, transport.lastMessage, "Reply with the number or name of your preferred stop.")

	// The stored record keeps the raw text, not the composed message.
	var saved broadcastModel.Broadcast
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, "Bus leaves at 5pm", saved.MessageText)
	assert.Equal(t, 2, saved.RecipientsCount)

	outgoing := func() int64 {
		var n int64
		require.NoError(t, db.Model(&smslog.SMSLog{}).Where("direction = ?", smslog.DirectionOutgoing).Count(&n).Error)
		return n
	}()
	assert.EqualValues(t, 2, outgoing)
}

func TestSendCustomOmitsStopMenu(t *testing.T) {
	app, _, transport, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)

	resp, body := doRequest(t, app, "POST", "/conductor/send-custom", `{"message":"Service resumes tomorrow"}`, true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	assert.Equal(t, "Service resumes tomorrow", transport.lastMessage)
	assert.NotContains(t, transport.lastMessage, "Available stops:")
}

func TestBroadcastWithoutRecipients(t *testing.T) {
	app, db, transport, store := newTestApp(t)

	// Opted-out passengers do not count as recipients.
	seedPassenger(t, store, "+254700000001", false)

	resp, body := doRequest(t, app, "POST", "/conductor/send-message", `{"message":"anyone there"}`, true)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No opted-in passengers found", body["error"])

	// No send attempted, no broadcast record created.
	assert.Equal(t, 0, transport.calls)
	var n int64
	require.NoError(t, db.Model(&broadcastModel.Broadcast{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestBroadcastMissingMessage(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	resp, body := doRequest(t, app, "POST", "/conductor/send-message", `{}`, true)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Message text is required", body["error"])
}

func TestBroadcastTransportFailure(t *testing.T) {
	app, db, transport, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	transport.err = errors.New("provider down")

	resp, _ := doRequest(t, app, "POST", "/conductor/send-message", `{"message":"hello"}`, true)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// The failed attempt is in the delivery log; no broadcast record.
	var logs []smslog.SMSLog
	require.NoError(t, db.Where("direction = ?", smslog.DirectionOutgoing).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Status, "failed: provider down")

	var n int64
	require.NoError(t, db.Model(&broadcastModel.Broadcast{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestRecipientsCountIsASnapshot(t *testing.T) {
	app, db, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	seedPassenger(t, store, "+254700000002", true)

	doRequest(t, app, "POST", "/conductor/send-message", `{"message":"first"}`, true)

	// One passenger opts out after the broadcast.
	p, err := store.FindByPhone("+254700000002")
	require.NoError(t, err)
	require.NoError(t, store.SetOptedIn(p, false))

	var saved broadcastModel.Broadcast
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, 2, saved.RecipientsCount)
}

func TestGetPassengers(t *testing.T) {
	app, _, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	seedPassenger(t, store, "+254700000002", false)

	resp, body := doRequest(t, app, "GET", "/conductor/passengers", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total_passengers"])
	assert.EqualValues(t, 1, body["opted_in"])
	assert.EqualValues(t, 1, body["opted_out"])

	passengers, ok := body["passengers"].([]interface{})
	require.True(t, ok)
	assert.Len(t, passengers, 2)
}

func TestGetResponsesWithStopSummary(t *testing.T) {
	app, db, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	p, err := store.FindByPhone("+254700000001")
	require.NoError(t, err)

	zimmerman := "Zimmerman"
	ngara := "Ngara"
	for _, stop := range []*string{&zimmerman, &zimmerman, &ngara} {
		require.NoError(t, db.Create(&responseModel.PassengerResponse{
			PassengerID:  p.ID,
			ResponseText: *stop,
			SelectedStop: stop,
		}).Error)
	}

	resp, body := doRequest(t, app, "GET", "/conductor/responses", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["total_responses"])

	summary, ok := body["stop_summary"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 2, summary["Zimmerman"])
	assert.EqualValues(t, 1, summary["Ngara"])
}

func TestGetResponsesFilteredByMessage(t *testing.T) {
	app, db, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	p, err := store.FindByPhone("+254700000001")
	require.NoError(t, err)

	msg := broadcastModel.Broadcast{MessageText: "first", RecipientsCount: 1}
	require.NoError(t, db.Create(&msg).Error)

	stop := "TRM"
	require.NoError(t, db.Create(&responseModel.PassengerResponse{
		PassengerID:  p.ID,
		MessageID:    &msg.ID,
		ResponseText: "4",
		SelectedStop: &stop,
	}).Error)
	require.NoError(t, db.Create(&responseModel.PassengerResponse{
		PassengerID:  p.ID,
		ResponseText: "5",
		SelectedStop: &stop,
	}).Error)

	_, body := doRequest(t, app, "GET", "/conductor/responses?message_id=1", "", true)
	assert.EqualValues(t, 1, body["total_responses"])
}

func TestGetMessagesWithResponseCounts(t *testing.T) {
	app, db, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	p, err := store.FindByPhone("+254700000001")
	require.NoError(t, err)

	msg := broadcastModel.Broadcast{MessageText: "first", RecipientsCount: 1}
	require.NoError(t, db.Create(&msg).Error)

	stop := "Ngara"
	require.NoError(t, db.Create(&responseModel.PassengerResponse{
		PassengerID:  p.ID,
		MessageID:    &msg.ID,
		ResponseText: "1",
		SelectedStop: &stop,
	}).Error)

	_, body := doRequest(t, app, "GET", "/conductor/messages", "", true)
	assert.EqualValues(t, 1, body["total_messages"])

	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	first := messages[0].(map[string]interface{})
	assert.EqualValues(t, 1, first["responses_count"])
	assert.Equal(t, "first", first["message_text"])
}

func TestGetStats(t *testing.T) {
	app, _, _, store := newTestApp(t)

	seedPassenger(t, store, "+254700000001", true)
	seedPassenger(t, store, "+254700000002", false)

	doRequest(t, app, "POST", "/conductor/send-message", `{"message":"stats test"}`, true)

	_, body := doRequest(t, app, "GET", "/conductor/api/stats", "", true)

	stats, ok := body["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 2, stats["total_passengers"])
	assert.EqualValues(t, 1, stats["opted_in"])
	assert.EqualValues(t, 1, stats["opted_out"])
	assert.EqualValues(t, 1, stats["total_messages_sent"])

	latest, ok := body["latest_message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "stats test", latest["text"])
	assert.EqualValues(t, 1, latest["recipients"])
}

func TestGetStatsEmptyDatabase(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	resp, body := doRequest(t, app, "GET", "/conductor/api/stats", "", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, body["latest_message"])
}

func TestDashboardServesHTML(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/conductor/dashboard", nil)
	req.Header.Set("Authorization", authHeader())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "Conductor Dashboard")
}
