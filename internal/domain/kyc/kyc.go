package kyc

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("kyc: record not found")
	ErrNotOwned    = errors.New("kyc: record does not belong to user")
	ErrDocRequired = errors.New("kyc: document reference required")
)

type KycID string

// Record is an identity document submitted by a user. Submission is
// auto-accepted: a stored record is a verified record, no review state.
type Record struct {
	ID          KycID
	UserID      string
	DocType     string
	DocNumber   string
	DocumentURL string
	SubmittedAt time.Time
}

// Store is the precondition source for the booking KYC gate.
type Store interface {
	ByID(ctx context.Context, id KycID) (*Record, error)
	// Latest resolves the user's most recent record, or ErrNotFound.
	Latest(ctx context.Context, userID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
}

type SubmitParams struct {
	ID          KycID
	UserID      string
	DocType     string
	DocNumber   string
	DocumentURL string
	Now         time.Time
}

func NewRecord(params SubmitParams) (*Record, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, errors.New("kyc: user id required")
	}
	if strings.TrimSpace(params.DocNumber) == "" && strings.TrimSpace(params.DocumentURL) == "" {
		return nil, ErrDocRequired
	}
	return &Record{
		ID:          params.ID,
		UserID:      params.UserID,
		DocType:     strings.TrimSpace(params.DocType),
		DocNumber:   strings.TrimSpace(params.DocNumber),
		DocumentURL: strings.TrimSpace(params.DocumentURL),
		SubmittedAt: params.Now.UTC(),
	}, nil
}

// BelongsTo validates ownership of an explicitly supplied kyc id.
func (r *Record) BelongsTo(userID string) bool {
	return r != nil && r.UserID == userID
}
