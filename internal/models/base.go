package models

import (
	"github.com/FabricioLanche/campus-room/internal/utils"
)

// IBase is what db.InsertOne needs from an embeddable model: the
// ability to assign its own id.
type IBase interface {
	GenIDIfEmpty()
	GenID()
	SetID(id utils.SixID)
}

// Base carries the id every persisted model embeds.
type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID == (utils.SixID{}) {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

func (m *Base) SetID(id utils.SixID) {
	m.ID = id
}

// NewBase returns a Base with a freshly generated id.
func NewBase() Base {
	return Base{ID: utils.NewSixID()}
}
