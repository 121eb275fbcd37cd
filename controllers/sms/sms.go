package sms

import (
	"fmt"

	"nazigi-sms/config"
	"nazigi-sms/logger"
	broadcastModel "nazigi-sms/models/broadcast"
	passengerModel "nazigi-sms/models/passenger"
	responseModel "nazigi-sms/models/response"
	"nazigi-sms/services/intent"
	passengerStore "nazigi-sms/services/passenger"
	smsService "nazigi-sms/services/sms"
	"nazigi-sms/services/stops"
	"nazigi-sms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles the inbound SMS webhook and the five reply handlers.
type Controller struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	Config     *config.Config
	Catalog    *stops.Catalog
	Gateway    *smsService.Gateway
	Passengers *passengerStore.Store
}

// NewSMSController creates a new SMS webhook controller
func NewSMSController(db *gorm.DB, asyncLogger *logger.AsyncLogger, cfg *config.Config,
	catalog *stops.Catalog, gateway *smsService.Gateway, store *passengerStore.Store) *Controller {
	return &Controller{
		DB:         db,
		Logger:     asyncLogger,
		Config:     cfg,
		Catalog:    catalog,
		Gateway:    gateway,
		Passengers: store,
	}
}

// Callback receives every inbound message from the SMS provider. GET
// serves as a liveness probe for callback URL registration.
func (sc *Controller) Callback(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodGet {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":          "ready",
			"message":         "SMS callback endpoint is active",
			"endpoint":        "/sms/callback",
			"method":          "POST",
			"expected_params": []string{"from", "to", "text", "date", "id", "linkId"},
		})
	}

	err := sc.handleInbound(c)
	sc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

func (sc *Controller) handleInbound(c *fiber.Ctx) error {
	fromNumber := c.FormValue("from")
	text := c.FormValue("text")

	logger.Info("📥 ========== INCOMING SMS ==========")
	logger.Printf("📱 From: %s", fromNumber)
	logger.Printf("💬 Text: %s", text)

	if fromNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "Missing originating number",
		})
	}

	fromNumber = utils.NormalizePhoneNumber(fromNumber, sc.Config.CountryCodePrefix)
	logger.Printf("📞 Normalized number: %s", fromNumber)

	// The inbound row is committed before any state change; a crash later
	// in the flow still leaves the audit trail complete.
	sc.Gateway.LogIncoming(fromNumber, text)

	// Serialize processing per phone so concurrent replies from one
	// number cannot race on load-mutate-commit.
	unlock := sc.Passengers.Lock(fromNumber)
	defer unlock()

	p, err := sc.Passengers.FindByPhone(fromNumber)
	if err != nil {
		logger.Error("CRITICAL ERROR in SMS callback", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	state := intent.StateUnknown
	if p != nil {
		if p.OptedIn {
			state = intent.StateActive
		} else {
			state = intent.StatePending
		}
		logger.Printf("👤 Passenger found: opted_in=%t", p.OptedIn)
	} else {
		logger.Info("👤 New passenger, not in database yet")
	}

	it := intent.Classify(state, sc.Config.OptInKeyword, text)
	logger.Printf("🎯 Classified intent: %s (state: %s)", it.Kind, state)

	switch it.Kind {
	case intent.KindOptInRequest:
		return sc.handleOptInRequest(c, fromNumber, p)
	case intent.KindOptInConfirm:
		return sc.handleOptInConfirmation(c, fromNumber, p)
	case intent.KindOptOut:
		return sc.handleOptOut(c, fromNumber, p)
	case intent.KindStopByNumber:
		return sc.handleStopSelection(c, fromNumber, p, it.StopNumber)
	default:
		return sc.handleStopNameSelection(c, fromNumber, p, it.Text)
	}
}

// handleOptInRequest answers the opt-in keyword with the 1/2 prompt. The
// caller always gets a success response; a failed prompt send is visible
// only in the delivery log.
func (sc *Controller) handleOptInRequest(c *fiber.Ctx, phoneNumber string, p *passengerModel.Passenger) error {
	if p == nil {
		logger.Printf("👤 Creating new passenger: %s", phoneNumber)
		var err error
		if p, err = sc.Passengers.GetOrCreatePending(phoneNumber); err != nil {
			logger.Error("Error handling opt-in request", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if _, err := sc.Gateway.SendOne(phoneNumber, optInPromptMessage(sc.Config)); err != nil {
		logger.Error("Failed to send opt-in prompt", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Opt-in request sent",
	})
}

// handleOptInConfirmation flips the passenger to opted-in. The flag is
// committed before the confirmation SMS goes out; the send is best-effort
// and never rolls the flag back.
func (sc *Controller) handleOptInConfirmation(c *fiber.Ctx, phoneNumber string, p *passengerModel.Passenger) error {
	if p == nil {
		logger.Printf("👤 Creating new passenger with opt-in: %s", phoneNumber)
		p = &passengerModel.Passenger{PhoneNumber: phoneNumber, OptedIn: true}
		if err := sc.Passengers.Create(p); err != nil {
			logger.Error("Error handling opt-in confirmation", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	} else {
		logger.Printf("👤 Updating existing passenger to opted-in: %s", phoneNumber)
		if err := sc.Passengers.SetOptedIn(p, true); err != nil {
			logger.Error("Error handling opt-in confirmation", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if _, err := sc.Gateway.SendOne(phoneNumber, optInConfirmedMessage(sc.Config)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User opted in",
	})
}

// handleOptOut clears the opt-in flag. An unregistered number gets the
// not-registered text and no row is created for it.
func (sc *Controller) handleOptOut(c *fiber.Ctx, phoneNumber string, p *passengerModel.Passenger) error {
	var message string
	if p != nil {
		if err := sc.Passengers.SetOptedIn(p, false); err != nil {
			logger.Error("Error handling opt-out", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Printf("👤 Passenger %s opted out", phoneNumber)
		message = optOutConfirmedMessage(sc.Config)
	} else {
		logger.Printf("👤 Passenger %s not registered", phoneNumber)
		message = notRegisteredMessage()
	}

	if _, err := sc.Gateway.SendOne(phoneNumber, message); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User opted out",
	})
}

// handleStopSelection records a stop chosen by number.
func (sc *Controller) handleStopSelection(c *fiber.Ctx, phoneNumber string, p *passengerModel.Passenger, stopNumber int) error {
	logger.Printf("🚏 Processing stop selection for %s: #%d", phoneNumber, stopNumber)

	if p == nil || !p.OptedIn {
		return sc.rejectNotOptedIn(c, phoneNumber)
	}

	selectedStop, err := sc.Catalog.ByIndex(stopNumber)
	if err != nil {
		logger.Warning(fmt.Sprintf("Invalid stop number: %d (valid: 1-%d)", stopNumber, sc.Catalog.Count()))
		if _, sendErr := sc.Gateway.SendOne(phoneNumber, invalidStopNumberMessage(sc.Catalog.Count())); sendErr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": sendErr.Error()})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid stop number",
		})
	}

	if err := sc.saveResponse(p, fmt.Sprintf("%d", stopNumber), selectedStop); err != nil {
		logger.Error("Error handling stop selection", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := sc.Gateway.SendOne(phoneNumber, stopConfirmedMessage(sc.Config, selectedStop)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Stop selected: " + selectedStop,
	})
}

// handleStopNameSelection records a stop typed as free text; unmatched
// input gets the full numbered menu back and no response row.
func (sc *Controller) handleStopNameSelection(c *fiber.Ctx, phoneNumber string, p *passengerModel.Passenger, text string) error {
	if p == nil || !p.OptedIn {
		return sc.rejectNotOptedIn(c, phoneNumber)
	}

	matchedStop, ok := sc.Catalog.MatchByName(text)
	if !ok {
		if _, err := sc.Gateway.SendOne(phoneNumber, unknownStopMessage(sc.Catalog.MenuText())); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "error",
			"message": "Stop not recognized",
		})
	}

	if err := sc.saveResponse(p, text, matchedStop); err != nil {
		logger.Error("Error handling stop name selection", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := sc.Gateway.SendOne(phoneNumber, stopConfirmedMessage(sc.Config, matchedStop)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Stop selected: " + matchedStop,
	})
}

func (sc *Controller) rejectNotOptedIn(c *fiber.Ctx, phoneNumber string) error {
	logger.Warning(fmt.Sprintf("Passenger %s not opted in, rejecting stop selection", phoneNumber))
	if _, err := sc.Gateway.SendOne(phoneNumber, optInRequiredMessage(sc.Config)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "error",
		"message": "User not opted in",
	})
}

// saveResponse persists one stop selection, optionally linked to the most
// recent broadcast when the deployment enables that.
func (sc *Controller) saveResponse(p *passengerModel.Passenger, responseText, selectedStop string) error {
	resp := responseModel.PassengerResponse{
		PassengerID:  p.ID,
		ResponseText: responseText,
		SelectedStop: &selectedStop,
	}

	if sc.Config.LinkResponsesToLatestBroadcast {
		var latest broadcastModel.Broadcast
		err := sc.DB.Order("sent_at DESC").First(&latest).Error
		if err == nil {
			resp.MessageID = &latest.ID
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to load latest broadcast: %w", err)
		}
	}

	if err := sc.DB.Create(&resp).Error; err != nil {
		return fmt.Errorf("failed to save passenger response: %w", err)
	}
	return nil
}
