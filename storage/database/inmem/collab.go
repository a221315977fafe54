package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/prepdesk/backend/core/collab"
)

type collabRepository struct {
	db *collabTable
}

var _ collab.Repository = (*collabRepository)(nil) // interface compliance check

func NewCollabRepository(db *DB) *collabRepository {
	return &collabRepository{db: db.collab}
}

func (repo *collabRepository) GetCollaboration(_ context.Context, id string) (collab.Collaboration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.collabs[id]; ok {
		return *c, nil
	}
	return collab.Collaboration{}, collab.ErrCollabNotFound
}

func (repo *collabRepository) QueryCollaborations(_ context.Context, ownerID string, statuses ...collab.CollabStatus) ([]collab.Collaboration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	out := make([]collab.Collaboration, 0)
	for _, c := range repo.db.collabs {
		if c.FromOwnerID != ownerID && c.ToOwnerID != ownerID {
			continue
		}
		for _, status := range statuses {
			if c.Status == status {
				out = append(out, *c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (repo *collabRepository) FindLink(_ context.Context, ownerA, ownerB string) (collab.Collaboration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.collabs {
		if c.Status != collab.CollabPending && c.Status != collab.CollabAccepted {
			continue
		}
		if (c.FromOwnerID == ownerA && c.ToOwnerID == ownerB) ||
			(c.FromOwnerID == ownerB && c.ToOwnerID == ownerA) {
			return *c, nil
		}
	}
	return collab.Collaboration{}, collab.ErrNoLink
}

func (repo *collabRepository) CreateCollaboration(_ context.Context, c collab.Collaboration) (collab.Collaboration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	repo.db.collabs[c.ID] = &c
	return c, nil
}

func (repo *collabRepository) UpdateCollaboration(_ context.Context, c collab.Collaboration) (collab.Collaboration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.collabs[c.ID]; !ok {
		return collab.Collaboration{}, collab.ErrCollabNotFound
	}
	repo.db.collabs[c.ID] = &c
	return c, nil
}

func (repo *collabRepository) GetTransaction(_ context.Context, id string) (collab.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tx, ok := repo.db.txs[id]; ok {
		return *tx, nil
	}
	return collab.Transaction{}, collab.ErrTransactionNotFound
}

func (repo *collabRepository) QueryTransactions(_ context.Context, collabID string) ([]collab.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	out := make([]collab.Transaction, 0)
	for _, tx := range repo.db.txs {
		if tx.CollaborationID == collabID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (repo *collabRepository) CreateTransaction(_ context.Context, tx collab.Transaction) (collab.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tx.ID = uuid.New().String()
	repo.db.txs[tx.ID] = &tx
	return tx, nil
}

func (repo *collabRepository) UpdateTransaction(_ context.Context, tx collab.Transaction) (collab.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.txs[tx.ID]; !ok {
		return collab.Transaction{}, collab.ErrTransactionNotFound
	}
	repo.db.txs[tx.ID] = &tx
	return tx, nil
}

func (repo *collabRepository) DeleteTransaction(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.txs, id)
	return nil
}

func (repo *collabRepository) SumTripAmounts(_ context.Context, ownerID, partnerID string, mode collab.FetchMode) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sum int64
	for _, t := range repo.db.trips {
		if tripMatches(t, ownerID, partnerID, mode) {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (repo *collabRepository) QueryTrips(_ context.Context, ownerID, partnerID string, mode collab.FetchMode) ([]collab.Trip, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	out := make([]collab.Trip, 0)
	for _, t := range repo.db.trips {
		if tripMatches(t, ownerID, partnerID, mode) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// tripMatches attributes a trip to the viewer's or the partner's side of the
// pair depending on the fetch mode.
func tripMatches(t *collab.Trip, ownerID, partnerID string, mode collab.FetchMode) bool {
	switch mode {
	case collab.FetchAsOwner:
		return t.OwnerID == ownerID && t.CollabOwnerID == partnerID
	case collab.FetchAsCollaborator:
		return t.OwnerID == partnerID && t.CollabOwnerID == ownerID
	}
	return false
}

func (repo *collabRepository) GetPayment(_ context.Context, id string) (collab.PartnerPayment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.payments[id]; ok {
		return *p, nil
	}
	return collab.PartnerPayment{}, collab.ErrPaymentNotFound
}

func (repo *collabRepository) QueryPayments(_ context.Context, ownerID, partnerID string) ([]collab.PartnerPayment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	out := make([]collab.PartnerPayment, 0)
	for _, p := range repo.db.payments {
		if p.OwnerID == ownerID && p.CollabOwnerID == partnerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (repo *collabRepository) CreatePayment(_ context.Context, p collab.PartnerPayment) (collab.PartnerPayment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *collabRepository) UpdatePayment(_ context.Context, p collab.PartnerPayment) (collab.PartnerPayment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.payments[p.ID]; !ok {
		return collab.PartnerPayment{}, collab.ErrPaymentNotFound
	}
	repo.db.payments[p.ID] = &p
	return p, nil
}

// AddTrip seeds a collaborative trip; tests use it to drive the settlement
// aggregates.
func (repo *collabRepository) AddTrip(t collab.Trip) collab.Trip {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	t.ID = uuid.New().String()
	repo.db.trips[t.ID] = &t
	return t
}
