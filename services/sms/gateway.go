package sms

import (
	"fmt"

	httpServices "nazigi-sms/httpServices/africastalking"
	"nazigi-sms/logger"
	"nazigi-sms/models/smslog"

	"gorm.io/gorm"
)

// Transport sends one message to a batch of recipients.
type Transport interface {
	Send(message string, recipients []string, senderID string) (*httpServices.SendResponse, error)
}

// Gateway wraps the SMS transport and records every send attempt, success
// or failure, to the delivery log. A locally recorded "sent" status means
// the message was handed to the provider without a transport error, not
// that it was delivered.
type Gateway struct {
	DB        *gorm.DB
	Transport Transport
	SenderID  string
}

func NewGateway(db *gorm.DB, transport Transport, senderID string) *Gateway {
	return &Gateway{
		DB:        db,
		Transport: transport,
		SenderID:  senderID,
	}
}

// SendOne sends to a single recipient.
func (g *Gateway) SendOne(phone, message string) (*httpServices.SendResponse, error) {
	return g.Send([]string{phone}, message)
}

// Send delivers message to recipients, writing one outgoing delivery log
// row per recipient. Transport failures are logged with the reason and
// propagated to the caller; nothing is retried.
func (g *Gateway) Send(recipients []string, message string) (*httpServices.SendResponse, error) {
	logger.Printf("📤 Sending SMS to %d recipient(s)", len(recipients))
	if g.SenderID != "" {
		logger.Info("Sending with sender ID: " + g.SenderID)
	} else {
		logger.Info("Sending without sender ID")
	}

	resp, err := g.Transport.Send(message, recipients, g.SenderID)
	if err != nil {
		logger.Error("Error sending SMS", err)
		g.logOutgoing(recipients, message, fmt.Sprintf("failed: %s", err.Error()))
		return nil, err
	}

	// Provider-side per-recipient statuses are diagnostics only; an
	// unapproved sender id shows up here as a non-success status while
	// the transport call itself succeeds.
	for _, r := range resp.SMSMessageData.Recipients {
		if r.Status == "Success" {
			logger.Printf("📞 %s: Status=%s, Code=%d", r.Number, r.Status, r.StatusCode)
		} else {
			logger.Warning(fmt.Sprintf("SMS not accepted for %s: %s (Code: %d)", r.Number, r.Status, r.StatusCode))
		}
	}

	g.logOutgoing(recipients, message, smslog.StatusSent)

	return resp, nil
}

// LogIncoming records an inbound message to the delivery log.
func (g *Gateway) LogIncoming(phone, text string) {
	entry := smslog.SMSLog{
		PhoneNumber: phone,
		Message:     text,
		Direction:   smslog.DirectionIncoming,
		Status:      smslog.StatusReceived,
	}
	if err := g.DB.Create(&entry).Error; err != nil {
		logger.Error("Error logging incoming SMS", err)
	}
}

func (g *Gateway) logOutgoing(recipients []string, message, status string) {
	for _, recipient := range recipients {
		entry := smslog.SMSLog{
			PhoneNumber: recipient,
			Message:     message,
			Direction:   smslog.DirectionOutgoing,
			Status:      status,
		}
		if err := g.DB.Create(&entry).Error; err != nil {
			logger.Error("Error logging outgoing SMS", err)
		}
	}
}
