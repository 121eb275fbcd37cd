package response

import (
	"time"
)

// PassengerResponse is one stop selection from a passenger. MessageID is
// nullable: a reply outside any broadcast context still records a response.
// Rows are append-only; only the bulk-clear tool removes them.
type PassengerResponse struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PassengerID  uint      `gorm:"not null;index" json:"passenger_id"`
	MessageID    *uint     `gorm:"index" json:"message_id,omitempty"`
	ResponseText string    `gorm:"type:text;not null" json:"response_text"`
	SelectedStop *string   `gorm:"type:varchar(100)" json:"selected_stop,omitempty"`
	RespondedAt  time.Time `gorm:"autoCreateTime" json:"responded_at"`
}

func (PassengerResponse) TableName() string { return "passenger_responses" }
