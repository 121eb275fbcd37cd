package conductor

import (
	"fmt"
	"time"

	"nazigi-sms/config"
	"nazigi-sms/logger"
	broadcastModel "nazigi-sms/models/broadcast"
	responseModel "nazigi-sms/models/response"
	passengerStore "nazigi-sms/services/passenger"
	smsService "nazigi-sms/services/sms"
	"nazigi-sms/services/stops"
	"nazigi-sms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles the conductor-facing broadcast and reporting API.
type Controller struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	Config     *config.Config
	Catalog    *stops.Catalog
	Gateway    *smsService.Gateway
	Passengers *passengerStore.Store
}

// NewConductorController creates a new conductor controller
func NewConductorController(db *gorm.DB, asyncLogger *logger.AsyncLogger, cfg *config.Config,
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

type sendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessage broadcasts a message with the stop menu appended to every
// opted-in passenger.
func (cc *Controller) SendMessage(c *fiber.Ctx) error {
	return cc.broadcast(c, true)
}

// SendCustom broadcasts the message text verbatim, without the stop menu.
func (cc *Controller) SendCustom(c *fiber.Ctx) error {
	return cc.broadcast(c, false)
}

func (cc *Controller) broadcast(c *fiber.Ctx, withStopMenu bool) error {
	defer cc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message text is required",
		})
	}

	recipients, err := cc.Passengers.OptedInNumbers()
	if err != nil {
		logger.Error("Error sending conductor message", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// No recipients means no send and no broadcast record.
	if len(recipients) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No opted-in passengers found",
		})
	}

	fullMessage := req.Message
	if withStopMenu {
		fullMessage += "\n\nAvailable stops:\n"
		for i := 1; i <= cc.Catalog.Count(); i++ {
			stop, _ := cc.Catalog.ByIndex(i)
			fullMessage += formatStopLine(i, stop)
		}
		fullMessage += "\nReply with the number or name of your preferred stop."
	}

	atResponse, err := cc.Gateway.Send(recipients, fullMessage)
	if err != nil {
		logger.Error("Error sending conductor message", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Snapshot the recipient count; it is never recomputed.
	conductorMsg := broadcastModel.Broadcast{
		MessageText:     req.Message,
		RecipientsCount: len(recipients),
	}
	if err := cc.DB.Create(&conductorMsg).Error; err != nil {
		logger.Error("Error saving conductor message", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":           "success",
		"message":          "Bulk SMS sent successfully",
		"recipients_count": len(recipients),
		"message_id":       conductorMsg.ID,
		"at_response":      atResponse,
	})
}

// GetPassengers lists every passenger with aggregate opt-in counts.
func (cc *Controller) GetPassengers(c *fiber.Ctx) error {
	passengers, err := cc.Passengers.All()
	if err != nil {
		logger.Error("Error getting passengers", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	passengersList := make([]fiber.Map, 0, len(passengers))
	optedInCount := 0
	for _, p := range passengers {
		if p.OptedIn {
			optedInCount++
		}
		passengersList = append(passengersList, fiber.Map{
			"id":           p.ID,
			"phone_number": p.PhoneNumber,
			"opted_in":     p.OptedIn,
			"created_at":   p.CreatedAt.Format(time.RFC3339),
			"updated_at":   p.UpdatedAt.Format(time.RFC3339),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"total_passengers": len(passengers),
		"opted_in":         optedInCount,
		"opted_out":        len(passengers) - optedInCount,
		"passengers":       passengersList,
	})
}

type responseRow struct {
	ID             uint
	PassengerPhone string
	MessageID      *uint
	ResponseText   string
	SelectedStop   *string
	RespondedAt    time.Time
}

// GetResponses lists stop selections, optionally filtered by broadcast,
// with a per-stop tally.
func (cc *Controller) GetResponses(c *fiber.Ctx) error {
	query := cc.DB.Table("passenger_responses").
		Select("passenger_responses.id, passengers.phone_number AS passenger_phone, " +
			"passenger_responses.message_id, passenger_responses.response_text, " +
			"passenger_responses.selected_stop, passenger_responses.responded_at").
		Joins("JOIN passengers ON passengers.id = passenger_responses.passenger_id")

	if messageID := c.QueryInt("message_id"); messageID > 0 {
		query = query.Where("passenger_responses.message_id = ?", messageID)
	} else {
		query = query.Order("passenger_responses.responded_at DESC").Limit(100)
	}

	var rows []responseRow
	if err := query.Scan(&rows).Error; err != nil {
		logger.Error("Error getting responses", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	responsesList := make([]fiber.Map, 0, len(rows))
	stopCounts := make(map[string]int)
	for _, r := range rows {
		responsesList = append(responsesList, fiber.Map{
			"id":              r.ID,
			"passenger_phone": r.PassengerPhone,
			"message_id":      r.MessageID,
			"response_text":   r.ResponseText,
			"selected_stop":   r.SelectedStop,
			"responded_at":    r.RespondedAt.Format(time.RFC3339),
		})
		if r.SelectedStop != nil {
			stopCounts[*r.SelectedStop]++
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"total_responses": len(responsesList),
		"responses":       responsesList,
		"stop_summary":    stopCounts,
	})
}

// GetMessages lists broadcast history with per-broadcast response counts.
func (cc *Controller) GetMessages(c *fiber.Ctx) error {
	var messages []broadcastModel.Broadcast
	err := cc.DB.Order("sent_at DESC").Limit(50).Find(&messages).Error
	if err != nil {
		logger.Error("Error getting messages", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	messagesList := make([]fiber.Map, 0, len(messages))
	for _, m := range messages {
		var responsesCount int64
		if err := cc.DB.Model(&responseModel.PassengerResponse{}).
			Where("message_id = ?", m.ID).Count(&responsesCount).Error; err != nil {
			logger.Error("Error counting responses", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		messagesList = append(messagesList, fiber.Map{
			"id":               m.ID,
			"message_text":     m.MessageText,
			"recipients_count": m.RecipientsCount,
			"sent_at":          m.SentAt.Format(time.RFC3339),
			"responses_count":  responsesCount,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"total_messages": len(messagesList),
		"messages":       messagesList,
	})
}

// GetStats returns aggregate counts plus the latest broadcast summary.
func (cc *Controller) GetStats(c *fiber.Ctx) error {
	totalPassengers, optedIn, err := cc.Passengers.Counts()
	if err != nil {
		logger.Error("Error getting dashboard stats", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var totalMessages, totalResponses int64
	if err := cc.DB.Model(&broadcastModel.Broadcast{}).Count(&totalMessages).Error; err != nil {
		logger.Error("Error getting dashboard stats", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if err := cc.DB.Model(&responseModel.PassengerResponse{}).Count(&totalResponses).Error; err != nil {
		logger.Error("Error getting dashboard stats", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var latestMessage fiber.Map
	var latest broadcastModel.Broadcast
	err = cc.DB.Order("sent_at DESC").First(&latest).Error
	if err == nil {
		latestMessage = fiber.Map{
			"id":         latest.ID,
			"text":       latest.MessageText,
			"sent_at":    latest.SentAt.Format(time.RFC3339),
			"recipients": latest.RecipientsCount,
		}
	} else if err != gorm.ErrRecordNotFound {
		logger.Error("Error getting dashboard stats", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"statistics": fiber.Map{
			"total_passengers":    totalPassengers,
			"opted_in":            optedIn,
			"opted_out":           totalPassengers - optedIn,
			"total_messages_sent": totalMessages,
			"total_responses":     totalResponses,
		},
		"latest_message": latestMessage,
	})
}

func formatStopLine(idx int, stop string) string {
	return fmt.Sprintf("%d. %s\n", idx, stop)
}
