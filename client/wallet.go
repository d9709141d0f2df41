package client

import (
	"context"
	"net/url"
	"strconv"
)

// Wallet endpoints expose the credit balance and ledger used to reconcile
// credit periods and expirations against the subscription snapshot.

// GetWalletBalance returns the workspace's current credit balance.
func (c *Client) GetWalletBalance(ctx context.Context, workspaceID string) (*WalletBalance, error) {
	if err := requireWorkspaceID(workspaceID); err != nil {
		return nil, err
	}
	var balance WalletBalance
	query := url.Values{"workspaceId": {workspaceID}}
	if err := c.get(ctx, "/wallet/balance", query, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetWalletTransactions lists wallet ledger entries, newest first.
func (c *Client) GetWalletTransactions(ctx context.Context, workspaceID string, q WalletTransactionQuery) ([]WalletTransaction, int, error) {
	if err := requireWorkspaceID(workspaceID); err != nil {
		return nil, 0, err
	}
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Type != "" {
		query.Set("type", q.Type)
	}
	if q.StartDate != "" {
		query.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("endDate", q.EndDate)
	}
	var resp walletTransactionsResponse
	if err := c.get(ctx, "/wallet/"+url.PathEscape(workspaceID)+"/transactions", query, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Transactions, resp.Total, nil
}
