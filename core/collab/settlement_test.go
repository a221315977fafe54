package collab

import "testing"

func TestNetBalance(t *testing.T) {
	tests := []struct {
		name              string
		my, partner, want int64
		wantLabel         string
	}{
		{"partner owes viewer", 5000, 3000, 2000, "Partner needs to pay me"},
		{"viewer owes partner", 3000, 5000, -2000, "I need to pay partner"},
		{"settled", 4000, 4000, 0, "Settled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := NetBalance(tt.my, tt.partner)
			if net != tt.want {
				t.Errorf("NetBalance(%d, %d) = %d, want %d", tt.my, tt.partner, net, tt.want)
			}
			if label := BalanceLabel(net); label != tt.wantLabel {
				t.Errorf("BalanceLabel(%d) = %q, want %q", net, label, tt.wantLabel)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{ToOwnerID: "me", FromOwnerID: "partner", Amount: 1000, Status: TxApproved},
		{ToOwnerID: "me", FromOwnerID: "partner", Amount: 500, Status: TxPaid},
		{ToOwnerID: "partner", FromOwnerID: "me", Amount: 300, Status: TxApproved},
		{ToOwnerID: "me", FromOwnerID: "partner", Amount: 9999, Status: TxPending},
		{ToOwnerID: "partner", FromOwnerID: "me", Amount: 42, Status: TxPending},
	}

	s := Summarize(txs, "me")
	if s.ApprovedReceivable != 1000 || s.PaidReceivable != 500 || s.ApprovedPayable != 300 {
		t.Errorf("settled sums = %+v", s)
	}
	if s.PendingReceivable != 9999 || s.PendingPayable != 42 {
		t.Errorf("pending sums = %+v", s)
	}
	// pending requests never move the balance
	if s.NetBalance != 1200 {
		t.Errorf("NetBalance = %d, want 1200", s.NetBalance)
	}
	if s.BalanceLabel != "Partner needs to pay me" {
		t.Errorf("BalanceLabel = %q", s.BalanceLabel)
	}

	// the same ledger from the other side flips sign
	ps := Summarize(txs, "partner")
	if ps.NetBalance != -1200 {
		t.Errorf("partner NetBalance = %d, want -1200", ps.NetBalance)
	}
}

func TestTripTotals(t *testing.T) {
	tot := TripTotals{MyTotal: 5000, PartnerTotal: 3000}
	if tot.Net() != 2000 {
		t.Errorf("Net() = %d, want 2000", tot.Net())
	}
}

func TestPendingPaymentAmount(t *testing.T) {
	tests := []struct {
		tripNet, approved, want int64
	}{
		{2000, 500, 1500},
		{2000, 2000, 0},
		{2000, 2500, 0}, // never negative
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := PendingPaymentAmount(tt.tripNet, tt.approved); got != tt.want {
			t.Errorf("PendingPaymentAmount(%d, %d) = %d, want %d",
				tt.tripNet, tt.approved, got, tt.want)
		}
	}
}
