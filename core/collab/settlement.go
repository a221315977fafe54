package collab

// Settlement figures come from two independent sources that are never mixed
// inside one number: trip aggregation on one hand, ledger transactions on
// the other. The shared sign convention is viewer-relative: positive means
// the partner owes the viewer.

// NetBalance derives the viewer-relative balance from per-side totals.
func NetBalance(myTotal, partnerTotal int64) int64 {
	return myTotal - partnerTotal
}

// BalanceLabel renders a net balance for display.
func BalanceLabel(net int64) string {
	switch {
	case net > 0:
		return "Partner needs to pay me"
	case net < 0:
		return "I need to pay partner"
	default:
		return "Settled"
	}
}

// Summary aggregates a collaboration's ledger from the viewer's side.
// Receivable sums what others owe the viewer, payable what the viewer owes,
// split by transaction status.
type Summary struct {
	ApprovedReceivable int64  `json:"approved_receivable"`
	ApprovedPayable    int64  `json:"approved_payable"`
	PaidReceivable     int64  `json:"paid_receivable"`
	PaidPayable        int64  `json:"paid_payable"`
	PendingReceivable  int64  `json:"pending_receivable"`
	PendingPayable     int64  `json:"pending_payable"`
	NetBalance         int64  `json:"net_balance"`
	BalanceLabel       string `json:"balance_label"`
}

// Summarize folds a transaction list into viewer-relative totals. The net
// balance counts approved and paid obligations; pending requests are listed
// separately and do not move the balance.
func Summarize(txs []Transaction, viewerID string) Summary {
	var s Summary
	for _, tx := range txs {
		receivable := tx.ToOwnerID == viewerID
		switch tx.Status {
		case TxApproved:
			if receivable {
				s.ApprovedReceivable += tx.Amount
			} else {
				s.ApprovedPayable += tx.Amount
			}
		case TxPaid:
			if receivable {
				s.PaidReceivable += tx.Amount
			} else {
				s.PaidPayable += tx.Amount
			}
		case TxPending:
			if receivable {
				s.PendingReceivable += tx.Amount
			} else {
				s.PendingPayable += tx.Amount
			}
		}
	}
	s.NetBalance = NetBalance(s.ApprovedReceivable+s.PaidReceivable, s.ApprovedPayable+s.PaidPayable)
	s.BalanceLabel = BalanceLabel(s.NetBalance)
	return s
}

// TripTotals carries per-side trip aggregates for a partner pair.
type TripTotals struct {
	MyTotal      int64 `json:"total_my_trips_amount"`
	PartnerTotal int64 `json:"total_partner_trips_amount"`
}

// Net is the viewer-relative trip balance.
func (t TripTotals) Net() int64 {
	return NetBalance(t.MyTotal, t.PartnerTotal)
}

// PendingPaymentAmount is what a payment-creation form prefills: the
// trip-based net minus approved transactions already counted against it,
// never below zero.
func PendingPaymentAmount(tripNet, approvedCounted int64) int64 {
	pending := tripNet - approvedCounted
	if pending < 0 {
		return 0
	}
	return pending
}
