package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepdesk/backend/core/collab"
)

func Test_collabApi_registry(t *testing.T) {
	env := newTestEnv(t)

	xavi := env.createOwner(t, "Xavi", "xavi")
	yann := env.createOwner(t, "Yann", "yann")
	xToken := getToken(t, xavi)
	yToken := getToken(t, yann)

	do := func(t *testing.T, method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s code = %v; want %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	// owner search never matches the empty term
	body := do(t, http.MethodGet, "/v1/collaborations/owners/search?search=yan", xToken, nil, http.StatusOK)
	var owners []collab.Owner
	if err := json.Unmarshal(body, &owners); err != nil {
		t.Fatalf("unmarshalling owners failed: %v", err)
	}
	if len(owners) != 1 || owners[0].ID != yann.ID {
		t.Fatalf("owners = %+v; want [yann]", owners)
	}

	// xavi invites yann
	body = do(t, http.MethodPost, "/v1/collaborations/send-request", xToken,
		marchallObj(t, SendRequestRequest{ToOwnerID: yann.ID}), http.StatusCreated)
	var c collab.Collaboration
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("unmarshalling collaboration failed: %v", err)
	}
	if c.Status != collab.CollabPending || c.FromOwnerID != xavi.ID || c.ToOwnerID != yann.ID {
		t.Fatalf("collaboration = %+v; want pending xavi->yann", c)
	}

	// a second live link between the pair is rejected, in either direction
	do(t, http.MethodPost, "/v1/collaborations/send-request", xToken,
		marchallObj(t, SendRequestRequest{ToOwnerID: yann.ID}), http.StatusBadRequest)
	do(t, http.MethodPost, "/v1/collaborations/send-request", yToken,
		marchallObj(t, SendRequestRequest{ToOwnerID: xavi.ID}), http.StatusBadRequest)
	// and nobody collaborates with themselves
	do(t, http.MethodPost, "/v1/collaborations/send-request", xToken,
		marchallObj(t, SendRequestRequest{ToOwnerID: xavi.ID}), http.StatusBadRequest)

	// the request shows up on both sides
	body = do(t, http.MethodGet, "/v1/collaborations/requests/received", yToken, nil, http.StatusOK)
	var list []collab.Collaboration
	if err := json.Unmarshal(body, &list); err != nil || len(list) != 1 {
		t.Fatalf("received requests = %s (err %v); want 1", body, err)
	}
	body = do(t, http.MethodGet, "/v1/collaborations/requests/sent", xToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &list); err != nil || len(list) != 1 {
		t.Fatalf("sent requests = %s (err %v); want 1", body, err)
	}

	// only the recipient settles; only the sender cancels
	do(t, http.MethodPatch, "/v1/collaborations/"+c.ID+"/accept", xToken, nil, http.StatusForbidden)
	do(t, http.MethodDelete, "/v1/collaborations/"+c.ID+"/cancel", yToken, nil, http.StatusForbidden)

	body = do(t, http.MethodPatch, "/v1/collaborations/"+c.ID+"/accept", yToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("unmarshalling collaboration failed: %v", err)
	}
	if c.Status != collab.CollabAccepted {
		t.Fatalf("status = %v; want accepted", c.Status)
	}

	// settled requests stay settled
	do(t, http.MethodPatch, "/v1/collaborations/"+c.ID+"/reject", yToken, nil, http.StatusForbidden)

	body = do(t, http.MethodGet, "/v1/collaborations/active", xToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &list); err != nil || len(list) != 1 {
		t.Fatalf("active collaborations = %s (err %v); want 1", body, err)
	}
}

func Test_collabApi_ledger(t *testing.T) {
	env := newTestEnv(t)

	xavi := env.createOwner(t, "Xavi", "xavi")
	yann := env.createOwner(t, "Yann", "yann")
	xToken := getToken(t, xavi)
	yToken := getToken(t, yann)

	do := func(t *testing.T, method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s code = %v; want %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	c, err := env.collabSvc.SendRequest(testCtx, xavi.ID, yann.ID)
	if err != nil {
		t.Fatalf("SendRequest() failed: %v", err)
	}

	// no transactions on an inactive collaboration
	do(t, http.MethodPost, "/v1/collab-transactions/create", xToken,
		marchallObj(t, collab.NewTransaction{CollaborationID: c.ID, Amount: 5000}), http.StatusForbidden)

	if _, err := env.collabSvc.Accept(testCtx, c.ID, yann.ID); err != nil {
		t.Fatalf("Accept() failed: %v", err)
	}

	// xavi requests payment: the current user is the payee, the partner owes
	body := do(t, http.MethodPost, "/v1/collab-transactions/create", xToken,
		marchallObj(t, collab.NewTransaction{CollaborationID: c.ID, Amount: 5000, Note: "June trips"}), http.StatusCreated)
	var ledger collab.Ledger
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	if len(ledger.Transactions) != 1 {
		t.Fatalf("transactions = %+v; want 1", ledger.Transactions)
	}
	tx := ledger.Transactions[0]
	if tx.FromOwnerID != yann.ID || tx.ToOwnerID != xavi.ID || tx.Status != collab.TxPending {
		t.Fatalf("transaction = %+v; want pending yann->xavi", tx.Transaction)
	}
	if len(tx.Actions) != 1 || tx.Actions[0] != collab.ActionApprove {
		t.Errorf("creator actions = %v; want [approve]", tx.Actions)
	}
	if ledger.Summary.PendingReceivable != 5000 || ledger.Summary.NetBalance != 0 {
		t.Errorf("summary = %+v; pending must not move the balance", ledger.Summary)
	}

	// the partner's view carries the withdraw action and the flipped sign
	body = do(t, http.MethodGet, "/v1/collab-transactions/collaboration/"+c.ID, yToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	if ledger.Summary.PendingPayable != 5000 {
		t.Errorf("partner summary = %+v; want pending_payable 5000", ledger.Summary)
	}
	if actions := ledger.Transactions[0].Actions; len(actions) != 1 || actions[0] != collab.ActionDelete {
		t.Errorf("partner actions = %v; want [delete]", actions)
	}

	// guards: the payer cannot approve, the payee cannot mark paid
	do(t, http.MethodPatch, "/v1/collab-transactions/approve/"+tx.ID, yToken, nil, http.StatusForbidden)
	do(t, http.MethodPatch, "/v1/collab-transactions/paid/"+tx.ID, xToken, nil, http.StatusForbidden)

	// approve, then the balance moves
	body = do(t, http.MethodPatch, "/v1/collab-transactions/approve/"+tx.ID, xToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	if ledger.Summary.ApprovedReceivable != 5000 || ledger.Summary.NetBalance != 5000 {
		t.Errorf("summary = %+v; want approved_receivable 5000", ledger.Summary)
	}
	if ledger.Summary.BalanceLabel != "Partner needs to pay me" {
		t.Errorf("balance label = %q", ledger.Summary.BalanceLabel)
	}

	// pay
	body = do(t, http.MethodPatch, "/v1/collab-transactions/paid/"+tx.ID, yToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	if got := ledger.Transactions[0].Status; got != collab.TxPaid {
		t.Errorf("status = %v; want paid", got)
	}

	// a pending request can only be withdrawn by the payer
	body = do(t, http.MethodPost, "/v1/collab-transactions/create", xToken,
		marchallObj(t, collab.NewTransaction{CollaborationID: c.ID, Amount: 700}), http.StatusCreated)
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	var pendingID string
	for _, view := range ledger.Transactions {
		if view.Status == collab.TxPending {
			pendingID = view.ID
		}
	}
	do(t, http.MethodDelete, "/v1/collab-transactions/delete/"+pendingID, xToken, nil, http.StatusForbidden)
	body = do(t, http.MethodDelete, "/v1/collab-transactions/delete/"+pendingID, yToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &ledger); err != nil {
		t.Fatalf("unmarshalling ledger failed: %v", err)
	}
	if len(ledger.Transactions) != 1 {
		t.Errorf("transactions = %+v; want the paid one only", ledger.Transactions)
	}

	// summary endpoint answers the summary alone
	body = do(t, http.MethodGet, "/v1/collab-transactions/summary/"+c.ID, xToken, nil, http.StatusOK)
	var summary collab.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("unmarshalling summary failed: %v", err)
	}
	if summary.PaidReceivable != 5000 {
		t.Errorf("summary = %+v; want paid_receivable 5000", summary)
	}
}

func Test_collabApi_tripsAndPayments(t *testing.T) {
	env := newTestEnv(t)

	xavi := env.createOwner(t, "Xavi", "xavi")
	yann := env.createOwner(t, "Yann", "yann")
	xToken := getToken(t, xavi)

	do := func(t *testing.T, method, path, token string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s code = %v; want %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	seeder := env.collabRepo.(tripSeeder)
	seeder.AddTrip(collab.Trip{OwnerID: xavi.ID, CollabOwnerID: yann.ID, Amount: 8000, Description: "Airport run"})
	seeder.AddTrip(collab.Trip{OwnerID: xavi.ID, CollabOwnerID: yann.ID, Amount: 2000})
	seeder.AddTrip(collab.Trip{OwnerID: yann.ID, CollabOwnerID: xavi.ID, Amount: 3000})

	// trips from the viewer's side
	body := do(t, http.MethodGet,
		"/v1/trips?trip_type=collaborative&collab_owner_id="+yann.ID+"&fetch_mode=as_owner", xToken, nil, http.StatusOK)
	var trips []collab.Trip
	if err := json.Unmarshal(body, &trips); err != nil {
		t.Fatalf("unmarshalling trips failed: %v", err)
	}
	if len(trips) != 2 {
		t.Fatalf("trips = %+v; want the 2 owned by xavi", trips)
	}

	// and from the partner's side
	body = do(t, http.MethodGet,
		"/v1/trips?collab_owner_id="+yann.ID+"&fetch_mode=as_collaborator", xToken, nil, http.StatusOK)
	if err := json.Unmarshal(body, &trips); err != nil {
		t.Fatalf("unmarshalling trips failed: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("trips = %+v; want the 1 owned by yann", trips)
	}

	// totals aggregate both sides at once
	body = do(t, http.MethodGet, "/v1/trips/totals?collab_owner_id="+yann.ID, xToken, nil, http.StatusOK)
	var totals collab.TripTotals
	if err := json.Unmarshal(body, &totals); err != nil {
		t.Fatalf("unmarshalling totals failed: %v", err)
	}
	if totals.MyTotal != 10000 || totals.PartnerTotal != 3000 || totals.Net() != 7000 {
		t.Errorf("totals = %+v; want 10000/3000", totals)
	}

	// payments
	do(t, http.MethodPost, "/v1/payments/create", xToken,
		marchallObj(t, collab.NewPartnerPayment{CollabOwnerID: yann.ID, PaymentType: "partner_payment", Amount: 0}),
		http.StatusBadRequest)

	body = do(t, http.MethodPost, "/v1/payments/create", xToken,
		marchallObj(t, collab.NewPartnerPayment{
			CollabOwnerID: yann.ID, PaymentType: "partner_payment", Amount: 7000, PaymentMode: "bank",
		}), http.StatusCreated)
	var payment collab.PartnerPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		t.Fatalf("unmarshalling payment failed: %v", err)
	}
	if payment.ID == "" || payment.Status != collab.PaymentPending || payment.OwnerID != xavi.ID {
		t.Fatalf("payment = %+v; want pending payment owned by xavi", payment)
	}

	// only the recording owner updates a payment
	yToken := getToken(t, yann)
	do(t, http.MethodPut, "/v1/payments/update/"+payment.ID, yToken,
		marchallObj(t, collab.NewPartnerPayment{CollabOwnerID: xavi.ID, PaymentType: "partner_payment", Amount: 1}),
		http.StatusForbidden)

	body = do(t, http.MethodPut, "/v1/payments/update/"+payment.ID, xToken,
		marchallObj(t, collab.NewPartnerPayment{
			CollabOwnerID: yann.ID, PaymentType: "partner_payment", Amount: 6500, PaymentMode: "cash",
		}), http.StatusOK)
	if err := json.Unmarshal(body, &payment); err != nil {
		t.Fatalf("unmarshalling payment failed: %v", err)
	}
	if payment.Amount != 6500 || payment.PaymentMode != "cash" {
		t.Errorf("payment = %+v; want updated amount and mode", payment)
	}

	body = do(t, http.MethodGet, "/v1/payments?collab_owner_id="+yann.ID, xToken, nil, http.StatusOK)
	var payments []collab.PartnerPayment
	if err := json.Unmarshal(body, &payments); err != nil {
		t.Fatalf("unmarshalling payments failed: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("payments = %+v; want 1", payments)
	}
}
