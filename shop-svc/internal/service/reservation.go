package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/storage"

	"github.com/google/uuid"
)

const reservationTimeLayout = "15:04"

type ReservationInput struct {
	ShopID  string                   `json:"shopId"`
	Time    string                   `json:"time"`
	TableNo string                   `json:"tableNo"`
	Phone   string                   `json:"phone"`
	Source  domain.ReservationSource `json:"source"`
}

type ReservationService struct {
	store *storage.Store
	hub   notify.Publisher
	Now   func() time.Time
	NewID func() string
}

func NewReservationService(store *storage.Store, hub notify.Publisher) *ReservationService {
	return &ReservationService{store: store, hub: hub, Now: time.Now, NewID: uuid.NewString}
}

// Create records a booking or walk-in. The table number is not checked
// against the shop's tables.
func (s *ReservationService) Create(ctx context.Context, input ReservationInput) (domain.Reservation, error) {
	reservation, err := s.validate(input)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := storage.Upsert(ctx, s.store, storage.ReservationsKey, reservation); err != nil {
		return domain.Reservation{}, fmt.Errorf("save reservation: %w", err)
	}

	s.hub.Publish(notify.Event{Type: notify.ReservationCreated, ShopID: reservation.ShopID, RecordID: reservation.ID})
	return reservation, nil
}

func (s *ReservationService) validate(input ReservationInput) (domain.Reservation, error) {
	reservation := domain.Reservation{
		ID:      s.NewID(),
		ShopID:  strings.TrimSpace(input.ShopID),
		Time:    strings.TrimSpace(input.Time),
		TableNo: strings.TrimSpace(input.TableNo),
		Phone:   strings.TrimSpace(input.Phone),
		Source:  input.Source,
		Status:  domain.ReservationWaiting,
	}
	if reservation.ShopID == "" || reservation.TableNo == "" || reservation.Phone == "" {
		return domain.Reservation{}, ErrInvalidReservation
	}

	if reservation.Time == "" {
		reservation.Time = s.Now().Format(reservationTimeLayout)
	} else if _, err := time.Parse(reservationTimeLayout, reservation.Time); err != nil || len(reservation.Time) != len(reservationTimeLayout) {
		return domain.Reservation{}, fmt.Errorf("%w: time %q", ErrInvalidReservation, reservation.Time)
	}

	if reservation.Source == "" {
		reservation.Source = domain.SourceWalkIn
	}
	if !reservation.Source.Valid() {
		return domain.Reservation{}, fmt.Errorf("%w: source %q", ErrInvalidReservation, reservation.Source)
	}
	return reservation, nil
}

// CheckIn seats the party. Checking in again only refreshes the time.
func (s *ReservationService) CheckIn(ctx context.Context, reservationID string) (domain.Reservation, error) {
	now := s.Now()
	reservation, found, err := storage.Modify(ctx, s.store, storage.ReservationsKey, reservationID, func(r *domain.Reservation) bool {
		r.MarkAsSeated(now)
		return true
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("save reservation: %w", err)
	}
	if !found {
		return domain.Reservation{}, ErrReservationNotFound
	}

	s.hub.Publish(notify.Event{Type: notify.ReservationCheckedIn, ShopID: reservation.ShopID, RecordID: reservation.ID})
	return reservation, nil
}

func (s *ReservationService) List(ctx context.Context, shopID string) []domain.Reservation {
	return storage.Filter(ctx, s.store, storage.ReservationsKey, func(r domain.Reservation) bool {
		return r.ShopID == shopID
	})
}
