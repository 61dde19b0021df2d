package permissions

import (
	"github.com/sirupsen/logrus"
)

// AccessType represents the access level of a user
type AccessType int

const (
	// None represents no access
	None AccessType = iota
	// Owner represents a configured owner of the session
	Owner
)

// PermissionController restricts the bot to the configured owners
type PermissionController struct {
	ownerIDs map[int64]bool
	logger   *logrus.Logger
}

// NewController creates a new permission controller
func NewController(ownerIDs []int64, logger *logrus.Logger) *PermissionController {
	// Create a map for O(1) lookup of owner IDs
	ownerIDMap := make(map[int64]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		ownerIDMap[id] = true
	}

	logger.Infof("Initialized permission controller with %d owners", len(ownerIDs))

	return &PermissionController{
		ownerIDs: ownerIDMap,
		logger:   logger,
	}
}

// GetAccessType determines the access type of a user
func (p *PermissionController) GetAccessType(userID int64) AccessType {
	if p.IsOwner(userID) {
		return Owner
	}

	// All other users have no access
	return None
}

// IsOwner checks if a user is an owner
func (p *PermissionController) IsOwner(userID int64) bool {
	isOwner := p.ownerIDs[userID]
	p.logger.Debugf("Checking if user %d is owner: %v", userID, isOwner)
	return isOwner
}
