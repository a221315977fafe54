// Package dirsvc adapts the user service to the owner directory the
// collaboration service consults for search and notifications.
package dirsvc

import (
	"context"

	"github.com/prepdesk/backend/core/collab"
	"github.com/prepdesk/backend/core/user"
)

type userDirectory struct {
	svc user.Service
}

var _ collab.OwnerDirectory = (*userDirectory)(nil)

func NewUserDirectory(svc user.Service) collab.OwnerDirectory {
	return &userDirectory{svc: svc}
}

func (d *userDirectory) GetOwner(ctx context.Context, id string) (collab.Owner, error) {
	usr, err := d.svc.GetByID(ctx, id)
	if err != nil {
		return collab.Owner{}, err
	}
	return collab.Owner{ID: usr.ID, Name: usr.Name, Email: usr.Email}, nil
}

func (d *userDirectory) SearchOwners(ctx context.Context, term string) ([]collab.Owner, error) {
	users, err := d.svc.SearchOwners(ctx, term)
	if err != nil {
		return nil, err
	}
	owners := make([]collab.Owner, 0, len(users))
	for _, usr := range users {
		owners = append(owners, collab.Owner{ID: usr.ID, Name: usr.Name, Email: usr.Email})
	}
	return owners, nil
}
