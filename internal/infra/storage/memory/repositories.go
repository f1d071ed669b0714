package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	domainbooking "livonto/internal/domain/booking"
	domainkyc "livonto/internal/domain/kyc"
	domainlistings "livonto/internal/domain/listings"
	domainpayment "livonto/internal/domain/payment"
	domainrooms "livonto/internal/domain/rooms"
	"livonto/internal/domain/shared/month"
)

// ListingRepository is an in-memory implementation for demo purposes.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

// NewListingRepository builds an empty repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or listings.ErrNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

// Save stores/updates a listing entry.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = listing
	return nil
}

// ByOwner lists an owner's properties, newest first.
func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Owner == owner {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// RoomRepository stores room configurations in memory.
type RoomRepository struct {
	mu    sync.RWMutex
	items map[domainrooms.RoomConfigID]*domainrooms.RoomConfiguration
}

// NewRoomRepository builds an empty room configuration repo.
func NewRoomRepository() *RoomRepository {
	return &RoomRepository{items: make(map[domainrooms.RoomConfigID]*domainrooms.RoomConfiguration)}
}

// ByID fetches a room configuration or rooms.ErrNotFound.
func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomConfigID) (*domainrooms.RoomConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.items[id]
	if !ok {
		return nil, domainrooms.ErrNotFound
	}
	return rc, nil
}

// ByListing lists a property's room configurations in a stable order.
func (r *RoomRepository) ByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainrooms.RoomConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainrooms.RoomConfiguration, 0)
	for _, rc := range r.items {
		if rc.ListingID == id {
			matches = append(matches, rc)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// Save stores the current room configuration state.
func (r *RoomRepository) Save(ctx context.Context, rc *domainrooms.RoomConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc.Version++
	r.items[rc.ID] = rc
	return nil
}

// Delete removes a configuration. Missing entries are not an error here; the
// booking-existence guard runs in the application layer.
func (r *RoomRepository) Delete(ctx context.Context, id domainrooms.RoomConfigID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b, nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(userID)
	if id == "" {
		return nil, errors.New("memory: user id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.UserID == id {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	result := make([]*domainbooking.Booking, len(matches))
	copy(result, matches)
	return result, nil
}

// CountActiveForMonth counts pending and confirmed bookings occupying the
// room configuration for the given month.
func (r *BookingRepository) CountActiveForMonth(ctx context.Context, id domainrooms.RoomConfigID, m month.Month) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, b := range r.items {
		if b.RoomConfigID == id && b.Status.Active() && b.StartMonth.Equal(m) {
			count++
		}
	}
	return count, nil
}

// DueForCompletion lists confirmed bookings whose month has fully elapsed.
func (r *BookingRepository) DueForCompletion(ctx context.Context, asOf time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.Status == domainbooking.StatusConfirmed && b.StartMonth.ElapsedBy(asOf) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

// ExistsForRoomConfig reports whether any booking ever referenced the
// configuration, regardless of state.
func (r *BookingRepository) ExistsForRoomConfig(ctx context.Context, id domainrooms.RoomConfigID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.RoomConfigID == id {
			return true, nil
		}
	}
	return false, nil
}

// PaymentRepository stores payment attempts in memory.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[domainpayment.PaymentID]*domainpayment.Payment
}

// NewPaymentRepository builds an empty payment repo.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[domainpayment.PaymentID]*domainpayment.Payment)}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return p, nil
}

// LatestByBooking returns the most recently created attempt for the booking.
func (r *PaymentRepository) LatestByBooking(ctx context.Context, id domainbooking.BookingID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domainpayment.Payment
	for _, p := range r.items {
		if p.BookingID != id {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, domainpayment.ErrNotFound
	}
	return latest, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version++
	r.items[p.ID] = p
	return nil
}

// KycStore keeps verification records in memory.
type KycStore struct {
	mu    sync.RWMutex
	items map[domainkyc.KycID]*domainkyc.Record
}

// NewKycStore builds an empty store.
func NewKycStore() *KycStore {
	return &KycStore{items: make(map[domainkyc.KycID]*domainkyc.Record)}
}

func (s *KycStore) ByID(ctx context.Context, id domainkyc.KycID) (*domainkyc.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[id]
	if !ok {
		return nil, domainkyc.ErrNotFound
	}
	return rec, nil
}

// Latest returns the user's most recent submission.
func (s *KycStore) Latest(ctx context.Context, userID string) (*domainkyc.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domainkyc.Record
	for _, rec := range s.items {
		if rec.UserID != userID {
			continue
		}
		if latest == nil || rec.SubmittedAt.After(latest.SubmittedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, domainkyc.ErrNotFound
	}
	return latest, nil
}

func (s *KycStore) Save(ctx context.Context, rec *domainkyc.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.ID] = rec
	return nil
}

// OccupancyLedger serializes bed-slot reservations under a single mutex so
// that concurrent bookings racing for the last bed see a consistent counter.
type OccupancyLedger struct {
	mu    sync.Mutex
	slots map[string]int
}

// NewOccupancyLedger builds an empty ledger.
func NewOccupancyLedger() *OccupancyLedger {
	return &OccupancyLedger{slots: make(map[string]int)}
}

// Reserve claims one slot, failing with rooms.ErrNoCapacity when the month
// is already full.
func (l *OccupancyLedger) Reserve(ctx context.Context, id domainrooms.RoomConfigID, m month.Month, capacity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := slotKey(id, m)
	if l.slots[key] >= capacity {
		return domainrooms.ErrNoCapacity
	}
	l.slots[key]++
	return nil
}

// Release returns a slot. The counter never goes below zero.
func (l *OccupancyLedger) Release(ctx context.Context, id domainrooms.RoomConfigID, m month.Month) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := slotKey(id, m)
	if l.slots[key] > 0 {
		l.slots[key]--
	}
	return nil
}

// Reserved reports the current counter, used by tests and reconciliation.
func (l *OccupancyLedger) Reserved(id domainrooms.RoomConfigID, m month.Month) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots[slotKey(id, m)]
}

func slotKey(id domainrooms.RoomConfigID, m month.Month) string {
	return string(id) + ":" + m.String()
}
