package domain

import "time"

type User struct {
	ID          string `json:"id"`
	IsAnonymous bool   `json:"isAnonymous"`
	Name        string `json:"name"`
}

type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	OwnerID   string    `json:"ownerId"`
}

func (s Shop) RecordID() string { return s.ID }

type MenuItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image,omitempty"`
}

// ShopMenu is unique per ShopID, not per ID.
type ShopMenu struct {
	ID          string     `json:"id"`
	ShopID      string     `json:"shopId"`
	BrandName   string     `json:"brandName"`
	Categories  []string   `json:"categories"`
	Items       []MenuItem `json:"items"`
	IsPublished bool       `json:"isPublished"`
}

func (m ShopMenu) Item(id string) (MenuItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

type Table struct {
	ID      string `json:"id"`
	ShopID  string `json:"shopId"`
	TableNo string `json:"tableNo"`
}

func (t Table) RecordID() string { return t.ID }

type ReservationSource string

const (
	SourceBooked ReservationSource = "booked"
	SourceWalkIn ReservationSource = "walk-in"
)

func (s ReservationSource) Valid() bool {
	return s == SourceBooked || s == SourceWalkIn
}

type ReservationStatus string

const (
	ReservationWaiting ReservationStatus = "waiting"
	ReservationSeated  ReservationStatus = "seated"
	// ReservationCancelled is terminal. Nothing sets it yet.
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID          string            `json:"id"`
	ShopID      string            `json:"shopId"`
	Time        string            `json:"time"`
	TableNo     string            `json:"tableNo"`
	Phone       string            `json:"phone"`
	Source      ReservationSource `json:"source"`
	Status      ReservationStatus `json:"status"`
	CheckInTime *time.Time        `json:"checkInTime,omitempty"`
}

func (r Reservation) RecordID() string { return r.ID }

func (r *Reservation) MarkAsSeated(at time.Time) {
	r.Status = ReservationSeated
	r.CheckInTime = &at
}

type OrderStatus string

const (
	OrderNew    OrderStatus = "new"
	OrderServed OrderStatus = "served"
	OrderPaid   OrderStatus = "paid"
)

// Next returns the status that follows s and whether s can move at all.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderNew:
		return OrderServed, true
	case OrderServed:
		return OrderPaid, true
	default:
		return s, false
	}
}

// Rank orders statuses so that a transition never lowers it.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderNew:
		return 0
	case OrderServed:
		return 1
	case OrderPaid:
		return 2
	default:
		return -1
	}
}

type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

type Order struct {
	ID         string      `json:"id"`
	ShopID     string      `json:"shopId"`
	TableNo    string      `json:"tableNo"`
	Items      []OrderItem `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (o Order) RecordID() string { return o.ID }

// TableLink is what staff print on a table.
type TableLink struct {
	TableNo string `json:"tableNo"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}
