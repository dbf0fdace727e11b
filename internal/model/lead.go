package model

import "time"

// Lead represents one contact in an outreach campaign. The remote store is the
// single source of truth; WhatsApp is the de-duplication key on import.
type Lead struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	WhatsApp       string         `json:"whatsapp,omitempty"`
	Cohort         string         `json:"cohort,omitempty"`
	MessageVariant string         `json:"messageVariant,omitempty"`
	MessageText    string         `json:"messageText,omitempty"`
	Stage          Stage          `json:"stage"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus,omitempty"`
	SaleValue      *float64       `json:"saleValue,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Source         Source         `json:"source,omitempty"`
	SentAt         *time.Time     `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	ReadAt         *time.Time     `json:"readAt,omitempty"`
	RepliedAt      *time.Time     `json:"repliedAt,omitempty"`
	InterestedAt   *time.Time     `json:"interestedAt,omitempty"`
	ApprovedAt     *time.Time     `json:"approvedAt,omitempty"`
	SoldAt         *time.Time     `json:"soldAt,omitempty"`
	LastEventAt    *time.Time     `json:"lastEventAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// LeadFilter narrows a listing. All provided fields must match (logical AND);
// Search is a case-insensitive substring match on the name.
type LeadFilter struct {
	Cohort         string
	Stage          string
	ApprovalStatus string
	Search         string
	Limit          int
}

// LeadUpdate is a partial, field-level update. Nil pointers leave the column
// untouched.
type LeadUpdate struct {
	Name           *string         `json:"name,omitempty"`
	WhatsApp       *string         `json:"whatsapp,omitempty"`
	Cohort         *string         `json:"cohort,omitempty"`
	MessageVariant *string         `json:"messageVariant,omitempty"`
	MessageText    *string         `json:"messageText,omitempty"`
	Stage          *Stage          `json:"stage,omitempty"`
	ApprovalStatus *ApprovalStatus `json:"approvalStatus,omitempty"`
	SaleValue      *float64        `json:"saleValue,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	Source         *Source         `json:"source,omitempty"`
	SentAt         *time.Time      `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	ReadAt         *time.Time      `json:"readAt,omitempty"`
	RepliedAt      *time.Time      `json:"repliedAt,omitempty"`
	InterestedAt   *time.Time      `json:"interestedAt,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
	SoldAt         *time.Time      `json:"soldAt,omitempty"`
	LastEventAt    *time.Time      `json:"lastEventAt,omitempty"`
}

// CohortSummary is the server-computed aggregate for one (cohort, variant) pair.
type CohortSummary struct {
	Cohort     string         `json:"cohort"`
	Variant    string         `json:"variant"`
	Total      int            `json:"total"`
	Counts     map[Stage]int  `json:"counts"`
	Conversion ConversionRate `json:"conversion"`
}

// ConversionRate is the funnel conversion chain, each step as a percentage with
// one decimal place. Denominators cascade to the nearest non-empty upstream bucket.
type ConversionRate struct {
	ActivatedPct  float64 `json:"activated_pct"`
	DeliveredPct  float64 `json:"delivered_pct"`
	RepliedPct    float64 `json:"replied_pct"`
	InterestedPct float64 `json:"interested_pct"`
	ApprovedPct   float64 `json:"approved_pct"`
	SoldPct       float64 `json:"sold_pct"`
}

// ImportRowError records one rejected CSV row.
type ImportRowError struct {
	Row   map[string]string `json:"row"`
	Error string            `json:"error"`
}

// ImportJob tracks an asynchronous CSV ingestion task, observed by clients via
// polling only. Jobs are never cancelable once started.
type ImportJob struct {
	ID         string           `json:"id"`
	Kind       ImportKind       `json:"kind"`
	Status     ImportStatus     `json:"status"`
	Total      int              `json:"total"`
	Processed  int              `json:"processed"`
	Created    int              `json:"created"`
	Updated    int              `json:"updated"`
	Skipped    int              `json:"skipped"`
	Errors     []ImportRowError `json:"errors,omitempty"`
	Message    string           `json:"message,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}
