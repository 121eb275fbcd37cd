package passenger

import (
	"time"

	"nazigi-sms/models/response"
)

// Passenger is a phone number that has interacted with the service. The
// normalized phone number acts as the natural key; opted_in starts false
// and flips on confirmation.
type Passenger struct {
	ID          uint                         `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber string                       `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone_number"`
	OptedIn     bool                         `gorm:"default:false;not null" json:"opted_in"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	Responses   []response.PassengerResponse `gorm:"foreignKey:PassengerID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

func (Passenger) TableName() string { return "passengers" }
