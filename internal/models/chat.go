package models

import (
	"time"

	"github.com/FabricioLanche/campus-room/internal/utils"
)

// MessageType tags the two message variants a chat thread can carry.
type MessageType string

const (
	MessageTypeText          MessageType = "text"
	MessageTypeContractOffer MessageType = "contract_offer"
)

// SenderMe is the sender id recorded for messages authored by the
// session owner.
const SenderMe = "me"

// Message is a single chat message. Messages are immutable once
// appended; insertion order is chronological order.
type Message struct {
	ID        utils.SixID `bson:"id" json:"id"`
	Text      string      `bson:"text" json:"text"`
	SenderID  string      `bson:"sender_id" json:"sender_id"` // "me" or the counterpart id
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Type      MessageType `bson:"type" json:"type"`
	// Contract offer payload, set only when Type is contract_offer.
	ContractCode  string `bson:"contract_code,omitempty" json:"contract_code,omitempty"`
	ContractLink  string `bson:"contract_link,omitempty" json:"contract_link,omitempty"`
	ContractTitle string `bson:"contract_title,omitempty" json:"contract_title,omitempty"`
}

// ChatSession is one message thread between the session owner and a
// counterpart. Sessions are created on first contact and never deleted;
// messages are embedded in append order.
type ChatSession struct {
	Base            `bson:",inline"`
	OwnerID         utils.SixID `bson:"owner_id" json:"owner_id"`
	CounterpartID   string      `bson:"counterpart_id" json:"counterpart_id"`
	CounterpartName string      `bson:"counterpart_name" json:"counterpart_name"`
	Messages        []Message   `bson:"messages" json:"messages"`
	Unread          int         `bson:"unread" json:"unread"`
	CreatedAt       time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"updated_at"`
}
