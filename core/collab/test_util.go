package collab

import (
	"context"

	"github.com/prepdesk/backend/core"
)

type serviceMock struct {
	service
}

func NewServiceMock(repo Repository, owners OwnerDirectory, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			owners:  owners,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) SendRequest(ctx context.Context, fromOwnerID, toOwnerID string) (Collaboration, error) {
	if fromOwnerID == toOwnerID {
		return Collaboration{}, core.NewValidationError(errSelfRequest)
	}
	if _, err := svc.repo.FindLink(ctx, fromOwnerID, toOwnerID); err == nil {
		return Collaboration{}, core.NewValidationError(errLinkExists)
	} else if err != ErrNoLink {
		return Collaboration{}, err
	}
	collab, err := svc.repo.CreateCollaboration(ctx, Collaboration{
		FromOwnerID: fromOwnerID,
		ToOwnerID:   toOwnerID,
		Status:      CollabPending,
	})
	if err != nil {
		return Collaboration{}, err
	}
	// run synchronously
	svc.sendRequestMail(fromOwnerID, toOwnerID)
	return collab, nil
}

func (svc *serviceMock) Accept(ctx context.Context, collabID, callerID string) (Collaboration, error) {
	collab, err := svc.settleRequest(ctx, collabID, callerID, CollabAccepted)
	if err != nil {
		return Collaboration{}, err
	}
	// run synchronously
	svc.sendAcceptedMail(collab.ToOwnerID, collab.FromOwnerID)
	return collab, nil
}
