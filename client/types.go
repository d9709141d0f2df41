package client

// ------------------------------
// Core domain types and payloads
// ------------------------------

// Tier is a membership plan tier.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// PurchaseMode selects between one-time and auto-renewing purchases.
type PurchaseMode string

const (
	PurchaseOneTimeMonth PurchaseMode = "one_time_month"
	PurchaseOneTimeYear  PurchaseMode = "one_time_year"
	PurchaseAutoMonthly  PurchaseMode = "auto_monthly"
	PurchaseAutoYearly   PurchaseMode = "auto_yearly"
)

// SubscriptionStatus is the server-driven subscription state. The client
// only observes it; transitions happen backend-side.
type SubscriptionStatus string

const (
	SubscriptionDraft    SubscriptionStatus = "draft"
	SubscriptionSigning  SubscriptionStatus = "signing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// SigningState is the lifecycle state of a contract signing session.
type SigningState string

const (
	SigningPending SigningState = "signing"
	SigningSigned  SigningState = "signed"
	SigningExpired SigningState = "expired"
)

// MembershipPlanFeature is a single displayable plan feature row.
type MembershipPlanFeature struct {
	Key         string      `json:"key"`
	Label       string      `json:"label,omitempty"`
	Description string      `json:"description,omitempty"`
	Value       interface{} `json:"value"`
	Unit        string      `json:"unit,omitempty"`
	Group       string      `json:"group,omitempty"`
	Highlight   bool        `json:"highlight,omitempty"`
	Order       int         `json:"order,omitempty"`
}

// MembershipPlan mirrors the backend plan DTO.
type MembershipPlan struct {
	Code                  string                  `json:"code"`
	Name                  string                  `json:"name"`
	Tier                  Tier                    `json:"tier"`
	PurchaseMode          PurchaseMode            `json:"purchaseMode"`
	PriceCents            int64                   `json:"priceCents"`
	Currency              string                  `json:"currency"`
	MonthlyCredits        int64                   `json:"monthlyCredits"`
	BillingIntervalMonths int                     `json:"billingIntervalMonths"`
	IsActive              bool                    `json:"isActive"`
	Features              []MembershipPlanFeature `json:"features,omitempty"`
}

// SubscriptionDetails is the current-state snapshot of a workspace
// subscription. Nullable timestamps stay pointers so "not set" survives the
// round trip.
type SubscriptionDetails struct {
	SubscriptionID           int64              `json:"subscriptionId"`
	PlanCode                 string             `json:"planCode"`
	Tier                     Tier               `json:"tier"`
	PurchaseMode             PurchaseMode       `json:"purchaseMode"`
	Status                   SubscriptionStatus `json:"status"`
	AutoRenew                bool               `json:"autoRenew"`
	TermStartAt              *string            `json:"termStartAt"`
	TermEndAt                *string            `json:"termEndAt"`
	CurrentPeriodStartAt     *string            `json:"currentPeriodStartAt"`
	CurrentPeriodEndAt       *string            `json:"currentPeriodEndAt"`
	MonthlyQuota             int64              `json:"monthlyQuota"`
	RemainingInCurrentPeriod int64              `json:"remainingInCurrentPeriod"`
	NextBillingAt            *string            `json:"nextBillingAt"`
	CancelAt                 *string            `json:"cancelAt,omitempty"`
}

// PurchaseRequest initiates a one-time payment order.
type PurchaseRequest struct {
	PlanCode    string `json:"planCode"`
	TotalAmount int64  `json:"totalAmount"`
	WorkspaceID string `json:"workspaceId"`
}

// PurchaseOrder is returned by a one-time purchase. The caller displays
// CodeURL as a payment QR and polls order state out of band.
type PurchaseOrder struct {
	CodeURL        string `json:"codeUrl"`
	OutTradeNo     string `json:"outTradeNo"`
	SubscriptionID int64  `json:"subscriptionId"`
	ExpiresAt      string `json:"expiresAt"`
}

// CreateSigningSessionRequest starts an auto-renew contract signing flow.
type CreateSigningSessionRequest struct {
	WorkspaceID        string `json:"workspaceId"`
	PlanCode           string `json:"planCode"`
	DisplayAccountName string `json:"displayAccountName,omitempty"`
}

// SigningSession identifies a short-lived contract signing flow.
type SigningSession struct {
	SigningSessionID string `json:"signingSessionId"`
	QRURL            string `json:"qrUrl"`
	ExpiresAt        string `json:"expiresAt"`
}

// SigningSessionStatus is a poll snapshot of a signing session. ContractID
// and SubscriptionID stay nil until the session reaches "signed".
type SigningSessionStatus struct {
	Status         SigningState `json:"status"`
	ContractID     *string      `json:"contractId"`
	SubscriptionID *int64       `json:"subscriptionId"`
}

// Terminal reports whether the session has reached a final state.
func (s *SigningSessionStatus) Terminal() bool {
	return s.Status == SigningSigned || s.Status == SigningExpired
}

// CancelSubscriptionRequest asks the server to cancel a subscription. The
// server decides whether cancellation is immediate or deferred to term end.
type CancelSubscriptionRequest struct {
	WorkspaceID    string `json:"workspaceId"`
	SubscriptionID int64  `json:"subscriptionId"`
	Reason         string `json:"reason,omitempty"`
}

// UserInfo is the session user snapshot.
type UserInfo struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// SyncProfileRequest establishes a server session from an external identity
// provider login.
type SyncProfileRequest struct {
	AuthingID string `json:"authingId"`
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Token     string `json:"token"`
}

// SyncProfileResponse carries the synced user plus the one-off signup
// credits grant, when present.
type SyncProfileResponse struct {
	UserInfo
	NewbieCreditsRecord *CreditRecord `json:"newbieCreditsRecord,omitempty"`
}

// CreditRecord is a single credit grant or spend entry.
type CreditRecord struct {
	RecordID  string `json:"recordId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WalletBalance is the current credit balance of a workspace wallet.
type WalletBalance struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// WalletTransaction is one ledger entry in a workspace wallet.
type WalletTransaction struct {
	TransactionID string `json:"transactionId"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Balance       string `json:"balance,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// WalletTransactionQuery filters a transaction listing.
type WalletTransactionQuery struct {
	Page      int
	Limit     int
	Type      string
	StartDate string
	EndDate   string
}

// walletTransactionsResponse mirrors the list endpoint response shape.
type walletTransactionsResponse struct {
	Transactions []WalletTransaction `json:"transactions"`
	Total        int                 `json:"total"`
}
