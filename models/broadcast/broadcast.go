package broadcast

import (
	"time"

	"nazigi-sms/models/response"
)

// Broadcast is one conductor-initiated message sent to all opted-in
// passengers. RecipientsCount is a snapshot taken at send time and is
// never recomputed.
type Broadcast struct {
	ID              uint                         `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageText     string                       `gorm:"type:text;not null" json:"message_text"`
	SentAt          time.Time                    `gorm:"autoCreateTime" json:"sent_at"`
	RecipientsCount int                          `gorm:"default:0" json:"recipients_count"`
	Responses       []response.PassengerResponse `gorm:"foreignKey:MessageID" json:"responses,omitempty"`
}

func (Broadcast) TableName() string { return "conductor_messages" }
