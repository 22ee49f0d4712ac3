package models

import (
	"time"

	"github.com/FabricioLanche/campus-room/internal/utils"
)

// Deal tracks one listing's contract-signing and payment-activation
// status. A deal is retrieved by its human-enterable contract code for
// signing, and by the payment code issued on signature for paying.
//
// State transitions are monotonic:
//
//	UNSIGNED --Sign--> SIGNED --MarkPaid--> PAID
//
// There is no reverse edge; deals are never destroyed.
type Deal struct {
	Base           `bson:",inline"`
	ContractCode   string      `bson:"contract_code" json:"contract_code"` // CTR-<digits>, unique
	PaymentCode    string      `bson:"payment_code" json:"payment_code"`   // PAY-<digits>, unique
	ListingID      utils.SixID `bson:"listing_id" json:"listing_id"`
	ListingTitle   string      `bson:"listing_title" json:"listing_title"`     // Denormalized for display
	ListingAddress string      `bson:"listing_address" json:"listing_address"` // Denormalized for display
	Price          float64     `bson:"price" json:"price"`
	StudentName    string      `bson:"student_name" json:"student_name"`   // Display-only, not a user reference
	LandlordName   string      `bson:"landlord_name" json:"landlord_name"` // Display-only, not a user reference
	IsSigned       bool        `bson:"is_signed" json:"is_signed"`
	IsPaid         bool        `bson:"is_paid" json:"is_paid"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
	SignedAt       *time.Time  `bson:"signed_at,omitempty" json:"signed_at,omitempty"`
	PaidAt         *time.Time  `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}
