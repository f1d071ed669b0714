package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"livonto/internal/domain/shared/events"
)

var (
	ErrIDRequired      = errors.New("listings: id is required")
	ErrOwnerRequired   = errors.New("listings: owner is required")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrAddressRequired = errors.New("listings: address must be provided when activating")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrNotFound        = errors.New("listings: not found")
)

type ListingID string
type OwnerID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Pincode string
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != ""
}

// Listing is a PG property. Rooms and rents live in room configurations; the
// listing itself carries identity, ownership and visibility state.
type Listing struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Description string
	Address     Address
	Amenities   []string
	GenderPref  string
	State       ListingState
	Photos      []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
}

type CreateListingParams struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Description string
	Address     Address
	Amenities   []string
	GenderPref  string
	Photos      []string
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Address:     params.Address,
		Amenities:   append([]string(nil), params.Amenities...),
		GenderPref:  strings.TrimSpace(params.GenderPref),
		State:       ListingDraft,
		Photos:      append([]string(nil), params.Photos...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) Suspend(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) UpdateDetails(title, description string, amenities []string, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	l.Title = strings.TrimSpace(title)
	l.Description = strings.TrimSpace(description)
	l.Amenities = append([]string(nil), amenities...)
	l.UpdatedAt = now.UTC()
	return nil
}

// OwnedBy reports whether the given owner manages this listing.
func (l *Listing) OwnedBy(owner OwnerID) bool {
	return l.Owner == owner
}
