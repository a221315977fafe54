package collab

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/prepdesk/backend/core"
)

var (
	// errors
	ErrCollabNotFound      = errors.New("collaboration not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPaymentNotFound     = errors.New("payment record not found")
	ErrNoLink              = errors.New("no collaboration exists between these owners")
	errSelfRequest         = errors.New("you cannot collaborate with yourself")
	errLinkExists          = errors.New("a collaboration with this owner already exists")
)

const (
	reasonNotActive     = "This collaboration is not active."
	reasonNotRecipient  = "Only the recipient of a request can accept or reject it."
	reasonNotSender     = "Only the sender of a request can cancel it."
	reasonNotPending    = "This request has already been settled."
	reasonCannotApprove = "Only the receiving owner can approve a pending request."
	reasonCannotPay     = "Only the paying owner can settle an approved request."
	reasonCannotDelete  = "Only the paying owner can delete a pending request."
	reasonNotParty      = "You are not part of this collaboration."
)

type (
	// Owner is the directory's view of an owner account.
	Owner struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// OwnerDirectory resolves owner accounts for search and notifications.
	OwnerDirectory interface {
		GetOwner(ctx context.Context, id string) (Owner, error)
		SearchOwners(ctx context.Context, term string) ([]Owner, error)
	}

	Repository interface {
		GetCollaboration(ctx context.Context, id string) (Collaboration, error)
		QueryCollaborations(ctx context.Context, ownerID string, statuses ...CollabStatus) ([]Collaboration, error)
		// FindLink returns any pending or accepted collaboration between the
		// two owners, in either direction. ErrNoLink when none exists.
		FindLink(ctx context.Context, ownerA, ownerB string) (Collaboration, error)
		CreateCollaboration(ctx context.Context, c Collaboration) (Collaboration, error)
		UpdateCollaboration(ctx context.Context, c Collaboration) (Collaboration, error)

		GetTransaction(ctx context.Context, id string) (Transaction, error)
		QueryTransactions(ctx context.Context, collabID string) ([]Transaction, error)
		CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
		UpdateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error

		// SumTripAmounts aggregates collaborative trip amounts for the pair,
		// attributed to the side the fetch mode names.
		SumTripAmounts(ctx context.Context, ownerID, partnerID string, mode FetchMode) (int64, error)
		QueryTrips(ctx context.Context, ownerID, partnerID string, mode FetchMode) ([]Trip, error)

		GetPayment(ctx context.Context, id string) (PartnerPayment, error)
		QueryPayments(ctx context.Context, ownerID, partnerID string) ([]PartnerPayment, error)
		CreatePayment(ctx context.Context, p PartnerPayment) (PartnerPayment, error)
		UpdatePayment(ctx context.Context, p PartnerPayment) (PartnerPayment, error)
	}

	// TransactionView is a transaction plus what the viewer may do to it.
	TransactionView struct {
		Transaction
		Actions []Action `json:"actions"`
	}

	// Ledger is the authoritative answer every ledger mutation returns: the
	// full transaction list and its summary, freshly fetched.
	Ledger struct {
		Transactions []TransactionView `json:"transactions"`
		Summary      Summary           `json:"summary"`
	}

	Service interface {
		// registry
		Active(ctx context.Context, ownerID string) ([]Collaboration, error)
		ReceivedRequests(ctx context.Context, ownerID string) ([]Collaboration, error)
		SentRequests(ctx context.Context, ownerID string) ([]Collaboration, error)
		SearchOwners(ctx context.Context, term string) ([]Owner, error)
		SendRequest(ctx context.Context, fromOwnerID, toOwnerID string) (Collaboration, error)
		Accept(ctx context.Context, collabID, callerID string) (Collaboration, error)
		Reject(ctx context.Context, collabID, callerID string) (Collaboration, error)
		Cancel(ctx context.Context, collabID, callerID string) (Collaboration, error)

		// ledger
		GetLedger(ctx context.Context, collabID, viewerID string) (Ledger, error)
		CreateTransaction(ctx context.Context, nt NewTransaction, currentUserID string) (Ledger, error)
		Approve(ctx context.Context, txID, callerID string) (Ledger, error)
		MarkPaid(ctx context.Context, txID, callerID string) (Ledger, error)
		DeleteTransaction(ctx context.Context, txID, callerID string) (Ledger, error)

		// settlement
		GetTripTotals(ctx context.Context, ownerID, partnerID string) (TripTotals, error)
		QueryTrips(ctx context.Context, ownerID, partnerID string, mode FetchMode) ([]Trip, error)

		// payments
		CreatePayment(ctx context.Context, np NewPartnerPayment, ownerID string) (PartnerPayment, error)
		UpdatePayment(ctx context.Context, id string, np NewPartnerPayment, ownerID string) (PartnerPayment, error)
		QueryPayments(ctx context.Context, ownerID, partnerID string) ([]PartnerPayment, error)
	}

	service struct {
		repo    Repository
		owners  OwnerDirectory
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, owners OwnerDirectory, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		owners:  owners,
		mailSvc: mailSvc,
	}
}

// ------------------------------------------------------------------ registry

func (svc *service) Active(ctx context.Context, ownerID string) ([]Collaboration, error) {
	return svc.repo.QueryCollaborations(ctx, ownerID, CollabAccepted)
}

func (svc *service) ReceivedRequests(ctx context.Context, ownerID string) ([]Collaboration, error) {
	collabs, err := svc.repo.QueryCollaborations(ctx, ownerID, CollabPending)
	if err != nil {
		return nil, err
	}
	received := collabs[:0]
	for _, c := range collabs {
		if c.ToOwnerID == ownerID {
			received = append(received, c)
		}
	}
	return received, nil
}

func (svc *service) SentRequests(ctx context.Context, ownerID string) ([]Collaboration, error) {
	collabs, err := svc.repo.QueryCollaborations(ctx, ownerID, CollabPending)
	if err != nil {
		return nil, err
	}
	sent := collabs[:0]
	for _, c := range collabs {
		if c.FromOwnerID == ownerID {
			sent = append(sent, c)
		}
	}
	return sent, nil
}

func (svc *service) SearchOwners(ctx context.Context, term string) ([]Owner, error) {
	return svc.owners.SearchOwners(ctx, core.CleanString(term, true /* lower */))
}

// SendRequest opens a pending collaboration towards another owner. A pair
// may hold at most one live (pending or accepted) link at a time.
func (svc *service) SendRequest(ctx context.Context, fromOwnerID, toOwnerID string) (Collaboration, error) {
	if fromOwnerID == toOwnerID {
		return Collaboration{}, core.NewValidationError(errSelfRequest)
	}
	if _, err := svc.repo.FindLink(ctx, fromOwnerID, toOwnerID); err == nil {
		return Collaboration{}, core.NewValidationError(errLinkExists)
	} else if err != ErrNoLink {
		return Collaboration{}, err
	}

	now := time.Now().UTC()
	collab, err := svc.repo.CreateCollaboration(ctx, Collaboration{
		FromOwnerID: fromOwnerID,
		ToOwnerID:   toOwnerID,
		Status:      CollabPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Collaboration{}, err
	}

	go svc.sendRequestMail(fromOwnerID, toOwnerID)
	return collab, nil
}

func (svc *service) Accept(ctx context.Context, collabID, callerID string) (Collaboration, error) {
	collab, err := svc.settleRequest(ctx, collabID, callerID, CollabAccepted)
	if err != nil {
		return Collaboration{}, err
	}
	go svc.sendAcceptedMail(collab.ToOwnerID, collab.FromOwnerID)
	return collab, nil
}

func (svc *service) Reject(ctx context.Context, collabID, callerID string) (Collaboration, error) {
	return svc.settleRequest(ctx, collabID, callerID, CollabRejected)
}

// settleRequest moves a pending request to accepted or rejected. Only the
// recipient may settle it.
func (svc *service) settleRequest(ctx context.Context, collabID, callerID string, status CollabStatus) (Collaboration, error) {
	collab, err := svc.repo.GetCollaboration(ctx, collabID)
	if err != nil {
		return Collaboration{}, err
	}
	if collab.ToOwnerID != callerID {
		return Collaboration{}, core.NewAuthorizationError(reasonNotRecipient)
	}
	if collab.Status != CollabPending {
		return Collaboration{}, core.NewAuthorizationError(reasonNotPending)
	}
	collab.Status = status
	collab.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCollaboration(ctx, collab)
}

func (svc *service) Cancel(ctx context.Context, collabID, callerID string) (Collaboration, error) {
	collab, err := svc.repo.GetCollaboration(ctx, collabID)
	if err != nil {
		return Collaboration{}, err
	}
	if collab.FromOwnerID != callerID {
		return Collaboration{}, core.NewAuthorizationError(reasonNotSender)
	}
	if collab.Status != CollabPending {
		return Collaboration{}, core.NewAuthorizationError(reasonNotPending)
	}
	collab.Status = CollabCancelled
	collab.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCollaboration(ctx, collab)
}

// -------------------------------------------------------------------- ledger

// GetLedger returns the full transaction list and summary from the viewer's
// side. Every ledger mutation funnels through here so callers always see the
// store's state, never a locally patched one.
func (svc *service) GetLedger(ctx context.Context, collabID, viewerID string) (Ledger, error) {
	txs, err := svc.repo.QueryTransactions(ctx, collabID)
	if err != nil {
		return Ledger{}, err
	}
	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, TransactionView{
			Transaction: tx,
			Actions:     PermittedActions(tx, viewerID),
		})
	}
	return Ledger{
		Transactions: views,
		Summary:      Summarize(txs, viewerID),
	}, nil
}

// CreateTransaction requests a payment from the partner: the current user is
// always the payee and the partner the payer.
func (svc *service) CreateTransaction(ctx context.Context, nt NewTransaction, currentUserID string) (Ledger, error) {
	if err := nt.Validate(); err != nil {
		return Ledger{}, err
	}
	collab, err := svc.repo.GetCollaboration(ctx, nt.CollaborationID)
	if err != nil {
		return Ledger{}, err
	}
	partner, ok := collab.PartnerOf(currentUserID)
	if !ok {
		return Ledger{}, core.NewAuthorizationError(reasonNotParty)
	}
	if !collab.IsActive() {
		return Ledger{}, core.NewAuthorizationError(reasonNotActive)
	}

	now := time.Now().UTC()
	date := nt.Date
	if date.IsZero() {
		date = now
	}
	_, err = svc.repo.CreateTransaction(ctx, Transaction{
		CollaborationID: collab.ID,
		FromOwnerID:     partner,
		ToOwnerID:       currentUserID,
		Amount:          nt.Amount,
		Note:            nt.Note,
		Date:            date.UTC(),
		Status:          TxPending,
		Type:            TypeNeedPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Ledger{}, err
	}
	return svc.GetLedger(ctx, collab.ID, currentUserID)
}

func (svc *service) Approve(ctx context.Context, txID, callerID string) (Ledger, error) {
	return svc.transition(ctx, txID, callerID, ActionApprove, TxApproved, reasonCannotApprove)
}

func (svc *service) MarkPaid(ctx context.Context, txID, callerID string) (Ledger, error) {
	return svc.transition(ctx, txID, callerID, ActionMarkPaid, TxPaid, reasonCannotPay)
}

func (svc *service) transition(ctx context.Context, txID, callerID string, action Action, to TxStatus, denyReason string) (Ledger, error) {
	tx, err := svc.repo.GetTransaction(ctx, txID)
	if err != nil {
		return Ledger{}, err
	}
	if !isPermitted(tx, callerID, action) {
		return Ledger{}, core.NewAuthorizationError(denyReason)
	}
	tx.Status = to
	tx.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateTransaction(ctx, tx); err != nil {
		return Ledger{}, err
	}
	return svc.GetLedger(ctx, tx.CollaborationID, callerID)
}

func (svc *service) DeleteTransaction(ctx context.Context, txID, callerID string) (Ledger, error) {
	tx, err := svc.repo.GetTransaction(ctx, txID)
	if err != nil {
		return Ledger{}, err
	}
	if !isPermitted(tx, callerID, ActionDelete) {
		return Ledger{}, core.NewAuthorizationError(reasonCannotDelete)
	}
	if err := svc.repo.DeleteTransaction(ctx, txID); err != nil {
		return Ledger{}, err
	}
	return svc.GetLedger(ctx, tx.CollaborationID, callerID)
}

// ---------------------------------------------------------------- settlement

func (svc *service) GetTripTotals(ctx context.Context, ownerID, partnerID string) (TripTotals, error) {
	myTotal, err := svc.repo.SumTripAmounts(ctx, ownerID, partnerID, FetchAsOwner)
	if err != nil {
		return TripTotals{}, err
	}
	partnerTotal, err := svc.repo.SumTripAmounts(ctx, ownerID, partnerID, FetchAsCollaborator)
	if err != nil {
		return TripTotals{}, err
	}
	return TripTotals{MyTotal: myTotal, PartnerTotal: partnerTotal}, nil
}

func (svc *service) QueryTrips(ctx context.Context, ownerID, partnerID string, mode FetchMode) ([]Trip, error) {
	return svc.repo.QueryTrips(ctx, ownerID, partnerID, mode)
}

// ------------------------------------------------------------------ payments

func (svc *service) CreatePayment(ctx context.Context, np NewPartnerPayment, ownerID string) (PartnerPayment, error) {
	if err := np.Validate(); err != nil {
		return PartnerPayment{}, err
	}
	now := time.Now().UTC()
	date := np.PaymentDate
	if date.IsZero() {
		date = now
	}
	return svc.repo.CreatePayment(ctx, PartnerPayment{
		OwnerID:       ownerID,
		CollabOwnerID: np.CollabOwnerID,
		PaymentType:   np.PaymentType,
		Amount:        np.Amount,
		PaymentDate:   date.UTC(),
		PaymentMode:   np.PaymentMode,
		Notes:         np.Notes,
		Status:        PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *service) UpdatePayment(ctx context.Context, id string, np NewPartnerPayment, ownerID string) (PartnerPayment, error) {
	if err := np.Validate(); err != nil {
		return PartnerPayment{}, err
	}
	p, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return PartnerPayment{}, err
	}
	if p.OwnerID != ownerID {
		return PartnerPayment{}, core.NewAuthorizationError(reasonNotParty)
	}
	p.PaymentType = np.PaymentType
	p.Amount = np.Amount
	if !np.PaymentDate.IsZero() {
		p.PaymentDate = np.PaymentDate.UTC()
	}
	p.PaymentMode = np.PaymentMode
	p.Notes = np.Notes
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *service) QueryPayments(ctx context.Context, ownerID, partnerID string) ([]PartnerPayment, error) {
	return svc.repo.QueryPayments(ctx, ownerID, partnerID)
}

// ------------------------------------------------------------ notifications

func (svc *service) sendRequestMail(fromOwnerID, toOwnerID string) {
	ctx := context.Background()
	from, err := svc.owners.GetOwner(ctx, fromOwnerID)
	if err != nil {
		return
	}
	to, err := svc.owners.GetOwner(ctx, toOwnerID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: to.Name, Address: to.Email}},
		Subject: "New collaboration request",
		BodyStr: fmt.Sprintf(
			"%s invited you to collaborate. Log in to accept or reject the request:\r\n\r\n%s",
			from.Name, core.Conf.FrontendBaseURL,
		),
	})
}

func (svc *service) sendAcceptedMail(accepterID, requesterID string) {
	ctx := context.Background()
	accepter, err := svc.owners.GetOwner(ctx, accepterID)
	if err != nil {
		return
	}
	requester, err := svc.owners.GetOwner(ctx, requesterID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: requester.Name, Address: requester.Email}},
		Subject: "Collaboration request accepted",
		BodyStr: fmt.Sprintf(
			"%s accepted your collaboration request. You can now record trips and payments together:\r\n\r\n%s",
			accepter.Name, core.Conf.FrontendBaseURL,
		),
	})
}
