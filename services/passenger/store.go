package passenger

import (
	"errors"
	"fmt"
	"sync"

	"nazigi-sms/models/passenger"

	"gorm.io/gorm"
)

// Store handles passenger persistence. Inbound processing for a given
// phone number is serialized through Lock so that near-simultaneous
// replies from one number cannot race on load-mutate-commit.
type Store struct {
	DB    *gorm.DB
	locks sync.Map // normalized phone -> *sync.Mutex
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Lock acquires the per-phone mutex and returns its release function.
func (s *Store) Lock(phone string) func() {
	mu, _ := s.locks.LoadOrStore(phone, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// FindByPhone returns the passenger for a normalized phone number, or nil
// when no row exists yet.
func (s *Store) FindByPhone(phone string) (*passenger.Passenger, error) {
	var p passenger.Passenger
	err := s.DB.Where("phone_number = ?", phone).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load passenger: %w", err)
	}
	return &p, nil
}

// GetOrCreatePending returns the existing passenger or creates a new row
// with opted_in=false. Row creation on first contact happens only here.
func (s *Store) GetOrCreatePending(phone string) (*passenger.Passenger, error) {
	p, err := s.FindByPhone(phone)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = &passenger.Passenger{PhoneNumber: phone, OptedIn: false}
	if err := s.DB.Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create passenger: %w", err)
	}
	return p, nil
}

// Create inserts a new passenger row.
func (s *Store) Create(p *passenger.Passenger) error {
	if err := s.DB.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create passenger: %w", err)
	}
	return nil
}

// SetOptedIn persists an opt-in flag change, stamping updated_at.
func (s *Store) SetOptedIn(p *passenger.Passenger, optedIn bool) error {
	p.OptedIn = optedIn
	if err := s.DB.Save(p).Error; err != nil {
		return fmt.Errorf("failed to update passenger: %w", err)
	}
	return nil
}

// OptedInNumbers returns the phone numbers of all opted-in passengers.
func (s *Store) OptedInNumbers() ([]string, error) {
	var numbers []string
	err := s.DB.Model(&passenger.Passenger{}).
		Where("opted_in = ?", true).
		Order("id").
		Pluck("phone_number", &numbers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list opted-in passengers: %w", err)
	}
	return numbers, nil
}

// All returns every passenger row in creation order.
func (s *Store) All() ([]passenger.Passenger, error) {
	var passengers []passenger.Passenger
	if err := s.DB.Order("id").Find(&passengers).Error; err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}
	return passengers, nil
}

// Counts returns the total and opted-in passenger counts.
func (s *Store) Counts() (total int64, optedIn int64, err error) {
	if err = s.DB.Model(&passenger.Passenger{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count passengers: %w", err)
	}
	err = s.DB.Model(&passenger.Passenger{}).Where("opted_in = ?", true).Count(&optedIn).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count opted-in passengers: %w", err)
	}
	return total, optedIn, nil
}
