package main

import (
	"context"
	"time"

	"github.com/prepdesk/backend/core"
	"github.com/prepdesk/backend/core/user"
)

// addOwner updates or creates an owner account.
func (cli *commandLine) addOwner(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
	}
	if err != nil && err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	create := err == user.ErrNotFound
	if create {
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.UpdatedAt = now
	if isAdmin {
		usr.Roles = user.AllRoles
	} else {
		usr.Roles = user.OwnerRoles
	}
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if create {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr, usr.IsActive)
	}
	return err
}
