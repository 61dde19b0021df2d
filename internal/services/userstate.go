package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/talha7k/qrcode-magic/internal/constants"
	"github.com/talha7k/qrcode-magic/internal/models"
)

// UserStateService manages bot conversation states
type UserStateService struct {
	cache  *cache.Cache
	logger *logrus.Logger
}

// NewUserStateService creates a new user state service
func NewUserStateService(logger *logrus.Logger) *UserStateService {
	return &UserStateService{
		cache:  cache.New(constants.StateExpiration*time.Minute, constants.StateCleanupInterval*time.Minute),
		logger: logger,
	}
}

// GetState gets a user's state
func (s *UserStateService) GetState(userID int64) (*models.UserState, error) {
	key := fmt.Sprintf("user_state_%d", userID)

	if data, found := s.cache.Get(key); found {
		if state, ok := data.(*models.UserState); ok {
			return state, nil
		}
		return nil, fmt.Errorf("invalid state type for user %d", userID)
	}

	// Return default state if not found
	return &models.UserState{State: models.Default}, nil
}

// SetState sets a user's state
func (s *UserStateService) SetState(userID int64, state models.UserState) error {
	key := fmt.Sprintf("user_state_%d", userID)
	s.cache.Set(key, &state, cache.DefaultExpiration)
	s.logger.Debugf("Set state for user %d: %+v", userID, state)
	return nil
}

// ClearState clears a user's state
func (s *UserStateService) ClearState(userID int64) error {
	key := fmt.Sprintf("user_state_%d", userID)
	s.cache.Delete(key)
	s.logger.Debugf("Cleared state for user %d", userID)
	return nil
}

// AwaitEntryName marks that the next plain message names a new entry
func (s *UserStateService) AwaitEntryName(userID int64) error {
	return s.SetState(userID, models.UserState{State: models.AwaitingEntryName})
}

// AwaitResetConfirmation marks that the next plain message confirms a reset
func (s *UserStateService) AwaitResetConfirmation(userID int64) error {
	return s.SetState(userID, models.UserState{State: models.AwaitingConfirmReset})
}
