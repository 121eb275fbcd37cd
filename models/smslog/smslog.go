package smslog

import (
	"time"
)

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"

	StatusReceived = "received"
	StatusSent     = "sent"
)

// SMSLog is the append-only audit trail of every inbound and outbound SMS
// attempt. Status is free text; failed sends carry "failed: <reason>".
type SMSLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber string    `gorm:"type:varchar(20);not null;index" json:"phone_number"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Direction   string    `gorm:"type:varchar(10);not null" json:"direction"`
	Status      string    `gorm:"type:varchar(255)" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SMSLog) TableName() string { return "sms_logs" }
