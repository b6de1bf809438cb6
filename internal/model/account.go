package model

import "time"

// AccountStatus is the lifecycle state of a sellable account.
type AccountStatus string

const (
	// AccountActive means the account is listed and purchasable.
	AccountActive AccountStatus = "ACTIVE"
	// AccountSold means the purchase saga committed; the transition
	// happens exactly once.
	AccountSold AccountStatus = "SOLD"
)

// Account represents one sellable listing.
type Account struct {
	ID          int64         `json:"id"`
	Username    string        `json:"username"`
	Password    string        `json:"-"`
	ListingURL  string        `json:"url"`
	Description string        `json:"description"`
	Price       int64         `json:"price"` // currency minor units
	Status      AccountStatus `json:"status"`
	SellerID    int64         `json:"seller_id"`
	BuyerID     *int64        `json:"buyer_id,omitempty"` // nil until sold
	CreatedAt   time.Time     `json:"created_at"`
}

// Credentials is the username/password pair returned to a buyer.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
