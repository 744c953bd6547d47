package domain

import (
	"fmt"

	"flexsession/internal/data/entity"
)

type Capability string

const (
	CapPublishSlot   Capability = "slot:publish"
	CapUnpublishSlot Capability = "slot:unpublish"
	CapBook          Capability = "session:book"
	CapAccept        Capability = "session:accept"
	CapDecline       Capability = "session:decline"
	CapDeliver       Capability = "session:deliver"
	CapComplete      Capability = "session:complete"
	CapCancel        Capability = "session:cancel"
	CapViewSession   Capability = "session:view"
	CapManageRates   Capability = "rates:manage"
)

var capabilities = map[Capability][]entity.UserRole{
	CapPublishSlot:   {entity.RoleEngineer},
	CapUnpublishSlot: {entity.RoleEngineer, entity.RoleAdmin},
	CapBook:          {entity.RoleArtist},
	CapAccept:        {entity.RoleEngineer},
	CapDecline:       {entity.RoleEngineer},
	CapDeliver:       {entity.RoleEngineer},
	CapComplete:      {entity.RoleArtist},
	CapCancel:        {entity.RoleArtist, entity.RoleEngineer, entity.RoleAdmin},
	CapViewSession:   {entity.RoleArtist, entity.RoleEngineer, entity.RoleAdmin},
	CapManageRates:   {entity.RoleEngineer},
}

// Authorize fails with ErrForbidden unless the actor's role holds c.
func Authorize(actor entity.Actor, c Capability) error {
	for _, role := range capabilities[c] {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, actor.Role, c)
}
