package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Subscription lifecycle operations. All of them propagate the normalized
// error unchanged and perform no local retries; callers decide based on the
// classification (see Classify/Retry).

// GetMembershipPlans lists the purchasable membership plans.
func (c *Client) GetMembershipPlans(ctx context.Context, activeOnly bool) ([]MembershipPlan, error) {
	query := url.Values{"activeOnly": {strconv.FormatBool(activeOnly)}}
	var plans []MembershipPlan
	if err := c.get(ctx, "/subscriptions/membership-plans", query, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// PurchaseOneTime initiates a one-time payment order. The caller displays
// the returned CodeURL as a payment QR and polls order status out of band.
func (c *Client) PurchaseOneTime(ctx context.Context, req PurchaseRequest) (*PurchaseOrder, error) {
	if err := requirePlanCode(req.PlanCode); err != nil {
		return nil, err
	}
	if err := requireWorkspaceID(req.WorkspaceID); err != nil {
		return nil, err
	}
	var order PurchaseOrder
	if err := c.post(ctx, "/subscriptions/purchase", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CloseOneTimeOrder cancels a pending one-time order, typically when the
// user abandons the payment dialog or the QR expires. Idempotent: closing an
// already-completed or already-closed order succeeds, and success does not
// imply the order was actually open.
func (c *Client) CloseOneTimeOrder(ctx context.Context, outTradeNo, workspaceID string) error {
	if outTradeNo == "" {
		return errMissing("outTradeNo")
	}
	if err := requireWorkspaceID(workspaceID); err != nil {
		return err
	}
	body := map[string]string{"outTradeNo": outTradeNo, "workspaceId": workspaceID}
	return c.post(ctx, "/subscriptions/close-order", body, nil)
}

// CreateSigningSession starts an auto-renew contract signing flow.
func (c *Client) CreateSigningSession(ctx context.Context, req CreateSigningSessionRequest) (*SigningSession, error) {
	if err := requireWorkspaceID(req.WorkspaceID); err != nil {
		return nil, err
	}
	if err := requirePlanCode(req.PlanCode); err != nil {
		return nil, err
	}
	var sess SigningSession
	if err := c.post(ctx, "/subscriptions/signing-sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSigningSessionStatus fetches one poll snapshot of a signing session.
// Stateless per call; the polling interval and termination condition are the
// caller's responsibility (or use PollSigningSession).
func (c *Client) GetSigningSessionStatus(ctx context.Context, sessionID string) (*SigningSessionStatus, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	var status SigningSessionStatus
	if err := c.get(ctx, "/subscriptions/signing-sessions/"+url.PathEscape(sessionID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CloseSigningSession cancels an abandoned signing flow. Idempotent.
func (c *Client) CloseSigningSession(ctx context.Context, sessionID, workspaceID string) error {
	if err := requireSessionID(sessionID); err != nil {
		return err
	}
	if err := requireWorkspaceID(workspaceID); err != nil {
		return err
	}
	body := map[string]string{"signingSessionId": sessionID, "workspaceId": workspaceID}
	return c.post(ctx, "/subscriptions/close-signing-session", body, nil)
}

// GetCurrentSubscription returns the workspace's current subscription
// snapshot, or (nil, nil) when none exists. The no-subscription case is not
// an error.
func (c *Client) GetCurrentSubscription(ctx context.Context, workspaceID string) (*SubscriptionDetails, error) {
	if err := requireWorkspaceID(workspaceID); err != nil {
		return nil, err
	}
	var details *SubscriptionDetails
	query := url.Values{"workspaceId": {workspaceID}}
	if err := c.get(ctx, "/subscriptions/me", query, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// CancelSubscription requests cancellation. Whether it takes effect
// immediately or at term end is the server's call, reflected in the returned
// status and CancelAt.
func (c *Client) CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) (*SubscriptionDetails, error) {
	if err := requireWorkspaceID(req.WorkspaceID); err != nil {
		return nil, err
	}
	if req.SubscriptionID == 0 {
		return nil, errMissing("subscriptionId")
	}
	body := map[string]interface{}{"workspaceId": req.WorkspaceID}
	if req.Reason != "" {
		body["reason"] = req.Reason
	}
	path := fmt.Sprintf("/subscriptions/%d/cancel", req.SubscriptionID)
	var details SubscriptionDetails
	if err := c.post(ctx, path, body, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// PollSigningSession polls a signing session at the given interval until it
// reaches a terminal state (signed or expired) or ctx is done. The first
// poll happens immediately. Transient poll errors propagate unchanged; wrap
// the call in Retry if resilience is wanted.
func (c *Client) PollSigningSession(ctx context.Context, sessionID string, interval time.Duration) (*SigningSessionStatus, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetSigningSessionStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if status.Terminal() {
			return status, nil
		}
		log.Debug().Str("signing_session_id", sessionID).Str("status", string(status.Status)).Msg("signing session pending")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
