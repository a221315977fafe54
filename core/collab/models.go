package collab

import (
	"time"

	"github.com/prepdesk/backend/core"
)

// CollabStatus is the lifecycle of a partner relationship.
type CollabStatus string

const (
	CollabPending   CollabStatus = "pending"
	CollabAccepted  CollabStatus = "accepted"
	CollabRejected  CollabStatus = "rejected"
	CollabCancelled CollabStatus = "cancelled"
)

// Collaboration links two owner accounts. Only accepted collaborations may
// carry transactions.
type Collaboration struct {
	ID          string       `json:"id"`
	FromOwnerID string       `json:"from_owner_id"` // requester
	ToOwnerID   string       `json:"to_owner_id"`   // recipient
	Status      CollabStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PartnerOf returns the other side of the collaboration. ok is false when
// ownerID is on neither side.
func (c *Collaboration) PartnerOf(ownerID string) (string, bool) {
	switch ownerID {
	case c.FromOwnerID:
		return c.ToOwnerID, true
	case c.ToOwnerID:
		return c.FromOwnerID, true
	}
	return "", false
}

func (c *Collaboration) IsActive() bool {
	return c.Status == CollabAccepted
}

// TxStatus is the lifecycle of a payment-request transaction:
// pending -> approved -> paid, or pending -> removed.
type TxStatus string

const (
	TxPending  TxStatus = "pending"
	TxApproved TxStatus = "approved"
	TxPaid     TxStatus = "paid"
)

// TxType identifies the kind of obligation a transaction records.
type TxType string

const TypeNeedPayment TxType = "need_payment"

// Transaction is a payment obligation between the two owners of a
// collaboration. FromOwnerID owes, ToOwnerID is owed. Amounts are whole
// currency units.
type Transaction struct {
	ID              string    `json:"id"`
	CollaborationID string    `json:"collaboration_id"`
	FromOwnerID     string    `json:"from_owner_id"`
	ToOwnerID       string    `json:"to_owner_id"`
	Amount          int64     `json:"amount"`
	Note            string    `json:"note,omitempty"`
	Date            time.Time `json:"date"`
	Status          TxStatus  `json:"status"`
	Type            TxType    `json:"type"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Action is something a viewer may do to a transaction.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionMarkPaid Action = "mark_paid"
	ActionDelete   Action = "delete"
)

// PermittedActions evaluates the transaction's role guards for one viewer.
// The payee approves pending requests; the payer settles approved ones and
// may withdraw a request that is still pending. Both the service guards and
// the API responses derive from this single table.
func PermittedActions(tx Transaction, viewerID string) []Action {
	var actions []Action
	if tx.Status == TxPending && viewerID == tx.ToOwnerID {
		actions = append(actions, ActionApprove)
	}
	if tx.Status == TxApproved && viewerID == tx.FromOwnerID {
		actions = append(actions, ActionMarkPaid)
	}
	if tx.Status == TxPending && viewerID == tx.FromOwnerID {
		actions = append(actions, ActionDelete)
	}
	return actions
}

func isPermitted(tx Transaction, viewerID string, action Action) bool {
	for _, a := range PermittedActions(tx, viewerID) {
		if a == action {
			return true
		}
	}
	return false
}

// NewTransaction is the payload for requesting a payment.
type NewTransaction struct {
	CollaborationID string    `json:"collaboration_id" validate:"required"`
	Amount          int64     `json:"amount" validate:"required,gt=0"`
	Note            string    `json:"note"`
	Date            time.Time `json:"date"`
}

func (nt *NewTransaction) Validate() error {
	nt.CollaborationID = core.CleanString(nt.CollaborationID)
	nt.Note = core.CleanString(nt.Note)
	if err := core.Validate.Struct(nt); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

// Trip is a collaborative job shared by two owners; its amount feeds the
// trip-based settlement figures.
type Trip struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	CollabOwnerID string    `json:"collab_owner_id"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description,omitempty"`
}

// FetchMode says from which side a collaborative trip listing is taken.
type FetchMode string

const (
	FetchAsOwner        FetchMode = "as_owner"
	FetchAsCollaborator FetchMode = "as_collaborator"
)

// PaymentStatus is the lifecycle of a recorded partner payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// PartnerPayment records money actually moved between partners outside the
// transaction ledger.
type PartnerPayment struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"owner_id"`
	CollabOwnerID string        `json:"collab_owner_id"`
	PaymentType   string        `json:"payment_type"`
	Amount        int64         `json:"amount"`
	PaymentDate   time.Time     `json:"payment_date"`
	PaymentMode   string        `json:"payment_mode,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Status        PaymentStatus `json:"collab_payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewPartnerPayment is the payload for recording a payment.
type NewPartnerPayment struct {
	CollabOwnerID string    `json:"collab_owner_id" validate:"required"`
	PaymentType   string    `json:"payment_type" validate:"required"`
	Amount        int64     `json:"amount" validate:"required,gt=0"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMode   string    `json:"payment_mode"`
	Notes         string    `json:"notes"`
}

func (np *NewPartnerPayment) Validate() error {
	np.CollabOwnerID = core.CleanString(np.CollabOwnerID)
	np.PaymentType = core.CleanString(np.PaymentType)
	np.PaymentMode = core.CleanString(np.PaymentMode)
	np.Notes = core.CleanString(np.Notes)
	if err := core.Validate.Struct(np); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
