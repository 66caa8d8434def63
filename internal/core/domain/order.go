package domain

import "time"

// AnonymousUserID buckets orders created without a user.
const AnonymousUserID = "anonymous"

type ShippingInfo struct {
	Name    string
	Email   string
	Address string
	City    string
	ZipCode string
}

// An OrderDraft is a cart snapshot with shipping info before
// an identifier and a timestamp are assigned.
type OrderDraft struct {
	UserID   string
	Lines    []CartLine
	Total    float64
	Shipping ShippingInfo
}

type Order struct {
	OrderID   string
	UserID    string
	Lines     []CartLine
	Total     float64
	Shipping  ShippingInfo
	CreatedAt time.Time
}

type User struct {
	UserID string
	Email  string
	Name   string
}

type Session struct {
	User  User
	Token string
}
