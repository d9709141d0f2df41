package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func envelopeOK(data string) string {
	return `{"code":200,"message":"ok","data":` + data + `,"timestamp":"2026-01-01T00:00:00Z"}`
}

func TestPurchaseOneTime_FieldsPassThroughUnchanged(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions/purchase" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req PurchaseRequest
		if err := json.Unmarshal(body, &req); err != nil || req.PlanCode != "premium_month" || req.WorkspaceID != "ws1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`{
			"codeUrl": "weixin://wxpay/bizpayurl?pr=abc",
			"outTradeNo": "ORD123",
			"subscriptionId": 42,
			"expiresAt": "2026-01-01T00:00:00Z"
		}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	order, err := c.PurchaseOneTime(context.Background(), PurchaseRequest{
		PlanCode:    "premium_month",
		TotalAmount: 9900,
		WorkspaceID: "ws1",
	})
	if err != nil {
		t.Fatalf("PurchaseOneTime returned error: %v", err)
	}
	if order.CodeURL != "weixin://wxpay/bizpayurl?pr=abc" ||
		order.OutTradeNo != "ORD123" ||
		order.SubscriptionID != 42 ||
		order.ExpiresAt != "2026-01-01T00:00:00Z" {
		t.Fatalf("fields must pass through unchanged, got %+v", order)
	}
}

func TestCloseOneTimeOrder_Idempotent(t *testing.T) {
	var calls int32
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/close-order" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		atomic.AddInt32(&calls, 1)
		// The server reports success whether or not the order was open.
		_, _ = w.Write([]byte(envelopeOK(`null`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	for i := 0; i < 2; i++ {
		if err := c.CloseOneTimeOrder(context.Background(), "ORD123", "ws1"); err != nil {
			t.Fatalf("close %d returned error: %v", i+1, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestCloseSigningSession_Idempotent(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/close-signing-session" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`null`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	for i := 0; i < 2; i++ {
		if err := c.CloseSigningSession(context.Background(), "ss1", "ws1"); err != nil {
			t.Fatalf("close %d returned error: %v", i+1, err)
		}
	}
}

func TestCreateSigningSession(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions/signing-sessions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`{
			"signingSessionId": "ss1",
			"qrUrl": "weixin://papay/sign?x=1",
			"expiresAt": "2026-01-01T00:05:00Z"
		}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	sess, err := c.CreateSigningSession(context.Background(), CreateSigningSessionRequest{
		WorkspaceID: "ws1",
		PlanCode:    "premium_auto_monthly",
	})
	if err != nil {
		t.Fatalf("CreateSigningSession returned error: %v", err)
	}
	if sess.SigningSessionID != "ss1" || sess.QRURL != "weixin://papay/sign?x=1" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestPollSigningSession_TerminatesOnSigned(t *testing.T) {
	var polls int32
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/signing-sessions/ss1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if atomic.AddInt32(&polls, 1) == 1 {
			_, _ = w.Write([]byte(envelopeOK(`{"status":"signing","contractId":null,"subscriptionId":null}`)))
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`{"status":"signed","contractId":"C1","subscriptionId":42}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := c.PollSigningSession(ctx, "ss1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("PollSigningSession returned error: %v", err)
	}
	if status.Status != SigningSigned {
		t.Fatalf("expected signed, got %s", status.Status)
	}
	if status.ContractID == nil || *status.ContractID != "C1" {
		t.Fatalf("unexpected contract %+v", status)
	}
	if status.SubscriptionID == nil || *status.SubscriptionID != 42 {
		t.Fatalf("unexpected subscription %+v", status)
	}
	if got := atomic.LoadInt32(&polls); got != 2 {
		t.Fatalf("expected the loop to stop on the second poll, polled %d times", got)
	}
}

func TestPollSigningSession_ContextCancellation(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelopeOK(`{"status":"signing","contractId":null,"subscriptionId":null}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.PollSigningSession(ctx, "ss1", 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error after context expiry")
	}
}

func TestGetCurrentSubscription_Snapshot(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/me" || r.URL.Query().Get("workspaceId") != "ws1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`{
			"subscriptionId": 42,
			"planCode": "premium_auto_monthly",
			"tier": "premium",
			"purchaseMode": "auto_monthly",
			"status": "active",
			"autoRenew": true,
			"termStartAt": "2026-01-01T00:00:00Z",
			"termEndAt": null,
			"currentPeriodStartAt": "2026-02-01T00:00:00Z",
			"currentPeriodEndAt": "2026-03-01T00:00:00Z",
			"monthlyQuota": 1000,
			"remainingInCurrentPeriod": 250,
			"nextBillingAt": "2026-03-01T00:00:00Z"
		}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	sub, err := c.GetCurrentSubscription(context.Background(), "ws1")
	if err != nil {
		t.Fatalf("GetCurrentSubscription returned error: %v", err)
	}
	if sub == nil || sub.SubscriptionID != 42 || sub.Status != SubscriptionActive || !sub.AutoRenew {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.TermEndAt != nil {
		t.Fatalf("null termEndAt must stay nil, got %v", *sub.TermEndAt)
	}
	if sub.RemainingInCurrentPeriod != 250 || sub.MonthlyQuota != 1000 {
		t.Fatalf("unexpected quota fields %+v", sub)
	}
}

func TestCancelSubscription_DeferredCancellation(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions/42/cancel" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`{
			"subscriptionId": 42,
			"planCode": "premium_auto_monthly",
			"tier": "premium",
			"purchaseMode": "auto_monthly",
			"status": "active",
			"autoRenew": false,
			"termStartAt": null,
			"termEndAt": null,
			"currentPeriodStartAt": null,
			"currentPeriodEndAt": null,
			"monthlyQuota": 1000,
			"remainingInCurrentPeriod": 250,
			"nextBillingAt": null,
			"cancelAt": "2026-03-01T00:00:00Z"
		}`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	sub, err := c.CancelSubscription(context.Background(), CancelSubscriptionRequest{
		WorkspaceID:    "ws1",
		SubscriptionID: 42,
		Reason:         "too expensive",
	})
	if err != nil {
		t.Fatalf("CancelSubscription returned error: %v", err)
	}
	// Deferred cancellation: still active, auto-renew off, cancelAt set.
	if sub.Status != SubscriptionActive || sub.AutoRenew {
		t.Fatalf("unexpected state %+v", sub)
	}
	if sub.CancelAt == nil || *sub.CancelAt != "2026-03-01T00:00:00Z" {
		t.Fatalf("cancelAt must be surfaced, got %+v", sub.CancelAt)
	}
}

func TestGetMembershipPlans(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscriptions/membership-plans" || r.URL.Query().Get("activeOnly") != "true" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(envelopeOK(`[{
			"code": "basic_month",
			"name": "Basic",
			"tier": "basic",
			"purchaseMode": "one_time_month",
			"priceCents": 2900,
			"currency": "CNY",
			"monthlyCredits": 100,
			"billingIntervalMonths": 1,
			"isActive": true
		}]`)))
	}))
	defer hs.Close()

	c := New(hs.URL)
	plans, err := c.GetMembershipPlans(context.Background(), true)
	if err != nil {
		t.Fatalf("GetMembershipPlans returned error: %v", err)
	}
	if len(plans) != 1 || plans[0].Code != "basic_month" || plans[0].Tier != TierBasic {
		t.Fatalf("unexpected plans %+v", plans)
	}
}

func TestSubscriptionOps_ValidateArguments(t *testing.T) {
	c := New("http://unused.invalid")
	ctx := context.Background()

	if _, err := c.PurchaseOneTime(ctx, PurchaseRequest{WorkspaceID: "ws1"}); err == nil {
		t.Fatal("missing planCode must fail before the network")
	}
	if err := c.CloseOneTimeOrder(ctx, "", "ws1"); err == nil {
		t.Fatal("missing outTradeNo must fail before the network")
	}
	if _, err := c.GetSigningSessionStatus(ctx, ""); err == nil {
		t.Fatal("missing sessionId must fail before the network")
	}
	if _, err := c.GetCurrentSubscription(ctx, ""); err == nil {
		t.Fatal("missing workspaceId must fail before the network")
	}
	if _, err := c.CancelSubscription(ctx, CancelSubscriptionRequest{WorkspaceID: "ws1"}); err == nil {
		t.Fatal("missing subscriptionId must fail before the network")
	}
}
