package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prepdesk/backend/core/collab"
)

type collabRepository struct {
	db *sqlx.DB
}

var _ collab.Repository = (*collabRepository)(nil) // interface compliance check

func NewCollabRepository(db *sqlx.DB) *collabRepository {
	return &collabRepository{db: db}
}

type collaborationRow struct {
	ID          string    `db:"id"`
	FromOwnerID string    `db:"from_owner_id"`
	ToOwnerID   string    `db:"to_owner_id"`
	Status      string    `db:"status"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (r collaborationRow) unpack() collab.Collaboration {
	return collab.Collaboration{
		ID:          r.ID,
		FromOwnerID: r.FromOwnerID,
		ToOwnerID:   r.ToOwnerID,
		Status:      collab.CollabStatus(r.Status),
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo *collabRepository) GetCollaboration(ctx context.Context, id string) (collab.Collaboration, error) {
	var row collaborationRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM collaboration WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return collab.Collaboration{}, collab.ErrCollabNotFound
	}
	if err != nil {
		return collab.Collaboration{}, errors.Wrap(err, "finding collaboration")
	}
	return row.unpack(), nil
}

func (repo *collabRepository) QueryCollaborations(ctx context.Context, ownerID string, statuses ...collab.CollabStatus) ([]collab.Collaboration, error) {
	strs := make([]string, 0, len(statuses))
	for _, s := range statuses {
		strs = append(strs, string(s))
	}
	q, args, err := sqlx.In(`
		SELECT * FROM collaboration
		WHERE (from_owner_id = ? OR to_owner_id = ?) AND status IN (?)
		ORDER BY created_at`,
		ownerID, ownerID, strs)
	if err != nil {
		return nil, errors.Wrap(err, "building collaborations query")
	}

	var rows []collaborationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying collaborations")
	}
	out := make([]collab.Collaboration, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.unpack())
	}
	return out, nil
}

func (repo *collabRepository) FindLink(ctx context.Context, ownerA, ownerB string) (collab.Collaboration, error) {
	var row collaborationRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM collaboration
		WHERE status IN ('pending', 'accepted')
		  AND ((from_owner_id = $1 AND to_owner_id = $2) OR (from_owner_id = $2 AND to_owner_id = $1))
		LIMIT 1`,
		ownerA, ownerB)
	if err == sql.ErrNoRows {
		return collab.Collaboration{}, collab.ErrNoLink
	}
	if err != nil {
		return collab.Collaboration{}, errors.Wrap(err, "finding collaboration link")
	}
	return row.unpack(), nil
}

func (repo *collabRepository) CreateCollaboration(ctx context.Context, c collab.Collaboration) (collab.Collaboration, error) {
	c.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO collaboration (id, from_owner_id, to_owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.FromOwnerID, c.ToOwnerID, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return collab.Collaboration{}, errors.Wrap(err, "inserting collaboration")
	}
	return c, nil
}

func (repo *collabRepository) UpdateCollaboration(ctx context.Context, c collab.Collaboration) (collab.Collaboration, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE collaboration SET status = $2, updated_at = $3 WHERE id = $1`,
		c.ID, string(c.Status), c.UpdatedAt)
	if err != nil {
		return collab.Collaboration{}, errors.Wrap(err, "updating collaboration")
	}
	return c, nil
}

type transactionRow struct {
	ID              string      `db:"id"`
	CollaborationID string      `db:"collaboration_id"`
	FromOwnerID     string      `db:"from_owner_id"`
	ToOwnerID       string      `db:"to_owner_id"`
	Amount          int64       `db:"amount"`
	Note            null.String `db:"note"`
	Date            null.Time   `db:"date"`
	Status          string      `db:"status"`
	Type            string      `db:"type"`
	CreatedAt       null.Time   `db:"created_at"`
	UpdatedAt       null.Time   `db:"updated_at"`
}

func (r transactionRow) unpack() collab.Transaction {
	return collab.Transaction{
		ID:              r.ID,
		CollaborationID: r.CollaborationID,
		FromOwnerID:     r.FromOwnerID,
		ToOwnerID:       r.ToOwnerID,
		Amount:          r.Amount,
		Note:            r.Note.String,
		Date:            r.Date.Time,
		Status:          collab.TxStatus(r.Status),
		Type:            collab.TxType(r.Type),
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

func (repo *collabRepository) GetTransaction(ctx context.Context, id string) (collab.Transaction, error) {
	var row transactionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM collab_transaction WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return collab.Transaction{}, collab.ErrTransactionNotFound
	}
	if err != nil {
		return collab.Transaction{}, errors.Wrap(err, "finding transaction")
	}
	return row.unpack(), nil
}

func (repo *collabRepository) QueryTransactions(ctx context.Context, collabID string) ([]collab.Transaction, error) {
	var rows []transactionRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM collab_transaction WHERE collaboration_id = $1 ORDER BY created_at`,
		collabID)
	if err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	out := make([]collab.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.unpack())
	}
	return out, nil
}

func (repo *collabRepository) CreateTransaction(ctx context.Context, tx collab.Transaction) (collab.Transaction, error) {
	tx.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO collab_transaction (
			id, collaboration_id, from_owner_id, to_owner_id,
			amount, note, date, status, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tx.ID, tx.CollaborationID, tx.FromOwnerID, tx.ToOwnerID,
		tx.Amount, null.NewString(tx.Note, tx.Note != ""), tx.Date, string(tx.Status), string(tx.Type),
		tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return collab.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return tx, nil
}

func (repo *collabRepository) UpdateTransaction(ctx context.Context, tx collab.Transaction) (collab.Transaction, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE collab_transaction SET status = $2, updated_at = $3 WHERE id = $1`,
		tx.ID, string(tx.Status), tx.UpdatedAt)
	if err != nil {
		return collab.Transaction{}, errors.Wrap(err, "updating transaction")
	}
	return tx, nil
}

func (repo *collabRepository) DeleteTransaction(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM collab_transaction WHERE id = $1`, id)
	return errors.Wrap(err, "deleting transaction")
}

func (repo *collabRepository) SumTripAmounts(ctx context.Context, ownerID, partnerID string, mode collab.FetchMode) (int64, error) {
	owner, partner := ownerID, partnerID
	if mode == collab.FetchAsCollaborator {
		owner, partner = partnerID, ownerID
	}
	var sum int64
	err := repo.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM trip WHERE owner_id = $1 AND collab_owner_id = $2`,
		owner, partner)
	return sum, errors.Wrap(err, "summing trip amounts")
}

func (repo *collabRepository) QueryTrips(ctx context.Context, ownerID, partnerID string, mode collab.FetchMode) ([]collab.Trip, error) {
	owner, partner := ownerID, partnerID
	if mode == collab.FetchAsCollaborator {
		owner, partner = partnerID, ownerID
	}
	var rows []tripRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, owner_id, collab_owner_id, amount, date, COALESCE(description, '') AS description
		FROM trip WHERE owner_id = $1 AND collab_owner_id = $2 ORDER BY date`,
		owner, partner)
	if err != nil {
		return nil, errors.Wrap(err, "querying trips")
	}
	trips := make([]collab.Trip, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, collab.Trip{
			ID:            row.ID,
			OwnerID:       row.OwnerID,
			CollabOwnerID: row.CollabOwnerID,
			Amount:        row.Amount,
			Date:          row.Date.Time,
			Description:   row.Description,
		})
	}
	return trips, nil
}

type tripRow struct {
	ID            string    `db:"id"`
	OwnerID       string    `db:"owner_id"`
	CollabOwnerID string    `db:"collab_owner_id"`
	Amount        int64     `db:"amount"`
	Date          null.Time `db:"date"`
	Description   string    `db:"description"`
}

type paymentRow struct {
	ID            string      `db:"id"`
	OwnerID       string      `db:"owner_id"`
	CollabOwnerID string      `db:"collab_owner_id"`
	PaymentType   string      `db:"payment_type"`
	Amount        int64       `db:"amount"`
	PaymentDate   null.Time   `db:"payment_date"`
	PaymentMode   null.String `db:"payment_mode"`
	Notes         null.String `db:"notes"`
	Status        string      `db:"status"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

func (r paymentRow) unpack() collab.PartnerPayment {
	return collab.PartnerPayment{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		CollabOwnerID: r.CollabOwnerID,
		PaymentType:   r.PaymentType,
		Amount:        r.Amount,
		PaymentDate:   r.PaymentDate.Time,
		PaymentMode:   r.PaymentMode.String,
		Notes:         r.Notes.String,
		Status:        collab.PaymentStatus(r.Status),
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

func (repo *collabRepository) GetPayment(ctx context.Context, id string) (collab.PartnerPayment, error) {
	var row paymentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM partner_payment WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return collab.PartnerPayment{}, collab.ErrPaymentNotFound
	}
	if err != nil {
		return collab.PartnerPayment{}, errors.Wrap(err, "finding payment")
	}
	return row.unpack(), nil
}

func (repo *collabRepository) QueryPayments(ctx context.Context, ownerID, partnerID string) ([]collab.PartnerPayment, error) {
	var rows []paymentRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM partner_payment WHERE owner_id = $1 AND collab_owner_id = $2 ORDER BY created_at`,
		ownerID, partnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	out := make([]collab.PartnerPayment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.unpack())
	}
	return out, nil
}

func (repo *collabRepository) CreatePayment(ctx context.Context, p collab.PartnerPayment) (collab.PartnerPayment, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO partner_payment (
			id, owner_id, collab_owner_id, payment_type, amount,
			payment_date, payment_mode, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OwnerID, p.CollabOwnerID, p.PaymentType, p.Amount,
		p.PaymentDate, null.NewString(p.PaymentMode, p.PaymentMode != ""),
		null.NewString(p.Notes, p.Notes != ""), string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return collab.PartnerPayment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo *collabRepository) UpdatePayment(ctx context.Context, p collab.PartnerPayment) (collab.PartnerPayment, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE partner_payment SET
			payment_type = $2, amount = $3, payment_date = $4,
			payment_mode = $5, notes = $6, status = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.PaymentType, p.Amount, p.PaymentDate,
		null.NewString(p.PaymentMode, p.PaymentMode != ""),
		null.NewString(p.Notes, p.Notes != ""), string(p.Status), p.UpdatedAt)
	if err != nil {
		return collab.PartnerPayment{}, errors.Wrap(err, "updating payment")
	}
	return p, nil
}
