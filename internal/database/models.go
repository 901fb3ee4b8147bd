package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderItem is one row of the order ledger. Quantity top-ups append new rows
// rather than mutating existing ones. Category, price and product discount
// are snapshots taken at order time; later catalog edits don't touch them.
type OrderItem struct {
	ID                 int64
	OrderID            string
	ItemName           string
	Category           string
	ItemOrderID        string
	TableNumber        string
	Quantity           int32
	Price              pgtype.Numeric
	ProductDiscount    pgtype.Numeric
	Note               pgtype.Text
	Username           string
	Location           string
	Status             string
	OrderType          string
	FinalStatus        pgtype.Text
	CompletedTime      pgtype.Timestamptz
	ServedTime         pgtype.Timestamptz
	AcceptOrRejectTime pgtype.Timestamptz
	ActionUsername     pgtype.Text
	RejectionReason    pgtype.Text
	Updated            bool
	ItemRemoval        pgtype.Text
	MergeOrderID       pgtype.Text
	MergeStatus        pgtype.Text
	MergedBy           pgtype.Text
	TableChangeInfo    []string
	CreatedDate        time.Time
}

// CheckoutItem is a staged copy of a ledger row awaiting the cashier.
type CheckoutItem struct {
	ID                        int64
	OrderID                   string
	ItemName                  string
	Category                  string
	ItemOrderID               string
	TableNumber               string
	Quantity                  int32
	Price                     pgtype.Numeric
	ProductDiscount           pgtype.Numeric
	Note                      pgtype.Text
	Username                  string
	Location                  string
	Status                    string
	OrderType                 string
	FinalStatus               pgtype.Text
	CompletedTime             pgtype.Timestamptz
	SentBy                    string
	SentDate                  time.Time
	CashierStatus             pgtype.Text
	SpecialDiscountValue      pgtype.Numeric
	SpecialDiscountStatus     pgtype.Text
	SpecialDiscountReason     pgtype.Text
	SpecialDiscountApprovedBy pgtype.Text
	SpecialDiscountApplied    pgtype.Bool
	CreatedDate               time.Time
}

type CompletedSale struct {
	ID            int64
	OrderID       string
	PaymentType   string
	Subtotal      pgtype.Numeric
	Vat           pgtype.Numeric
	OrderDiscount pgtype.Numeric
	Total         pgtype.Numeric
	Delivery      pgtype.Numeric
	SaleDate      time.Time
}

type Notification struct {
	Sid       int64
	ID        uuid.UUID
	Username  pgtype.Text
	Location  string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type User struct {
	ID                    int64
	Username              string
	PasswordHash          string
	Role                  string
	IsActive              bool
	CashierManage         bool
	SpecialDiscountManage bool
	BarManage             bool
	KitchenManage         bool
	ShishaManage          bool
	ManageUserOrders      bool
	OrderManage           bool
}

type Product struct {
	ID           int64
	ProductName  string
	Category     string
	Price        pgtype.Numeric
	Image        pgtype.Text
	Availability bool
}

// QueueCounts summarises a station (or staff) queue by item status.
type QueueCounts struct {
	Pending    int64
	InProgress int64
	Served     int64
	Rejected   int64
}

// ActiveOrderItem is a ledger row joined with its product image for queue
// views. Everything else comes from the row's own snapshot.
type ActiveOrderItem struct {
	OrderItem
	ProductImage pgtype.Text
}

// PendingCheckoutItem is a staged row joined with its product image.
type PendingCheckoutItem struct {
	CheckoutItem
	ProductImage pgtype.Text
}

// CompletedSaleItem pairs a finalized sale with one of its ledger rows.
type CompletedSaleItem struct {
	CompletedSale
	ItemName    string
	ItemOrderID string
	Quantity    int32
	Price       pgtype.Numeric
	Location    string
	Username    string
	TableNumber string
}
