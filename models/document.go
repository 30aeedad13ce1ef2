package models

import (
	"time"
)

// EntityKind names the entity types a document may be attached to.
type EntityKind string

const (
	KindProperty      EntityKind = "property"
	KindTenant        EntityKind = "tenant"
	KindLease         EntityKind = "lease"
	KindRent          EntityKind = "rent"
	KindInventory     EntityKind = "inventory"
	KindCommunication EntityKind = "communication"
)

var entityKinds = []EntityKind{KindProperty, KindTenant, KindLease, KindRent, KindInventory, KindCommunication}

// EntityKinds returns every kind a RelatedEntity may carry.
func EntityKinds() []EntityKind {
	out := make([]EntityKind, len(entityKinds))
	copy(out, entityKinds)
	return out
}

func (k EntityKind) Valid() bool {
	for _, known := range entityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RelatedEntity is a weak reference from a document to another entity. It is never
// validated on write and never cascades on delete.
type RelatedEntity struct {
	Kind EntityKind
	ID   uint
}

// Document is a binary attachment. Data is carried next to the row and never
// serialized with it; the transfer subsystem encodes it separately.
type Document struct {
	ID                uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string      `gorm:"size:255;not null" json:"name"`
	Type              string      `gorm:"size:64" json:"type"`
	MimeType          string      `gorm:"size:255" json:"mimeType"`
	Size              int64       `json:"size"`
	Data              []byte      `json:"-"`
	RelatedEntityType *EntityKind `gorm:"size:32" json:"relatedEntityType,omitempty"`
	RelatedEntityID   *uint       `json:"relatedEntityId,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

func (Document) TableName() string {
	return "documents"
}

// Related returns the document's association, if any.
func (d *Document) Related() (RelatedEntity, bool) {
	if d.RelatedEntityType == nil || d.RelatedEntityID == nil {
		return RelatedEntity{}, false
	}
	return RelatedEntity{Kind: *d.RelatedEntityType, ID: *d.RelatedEntityID}, true
}

// AttachTo sets the association. A zero RelatedEntity clears it.
func (d *Document) AttachTo(ref RelatedEntity) {
	if ref.Kind == "" {
		d.RelatedEntityType, d.RelatedEntityID = nil, nil
		return
	}
	kind, id := ref.Kind, ref.ID
	d.RelatedEntityType, d.RelatedEntityID = &kind, &id
}

type CommunicationChannel string

const (
	ChannelEmail  CommunicationChannel = "email"
	ChannelLetter CommunicationChannel = "letter"
	ChannelPhone  CommunicationChannel = "phone"
	ChannelSMS    CommunicationChannel = "sms"
	ChannelOther  CommunicationChannel = "other"
)

func (c CommunicationChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelLetter, ChannelPhone, ChannelSMS, ChannelOther:
		return true
	}
	return false
}

// Communication records a message exchanged with a tenant about a property.
type Communication struct {
	ID         uint                 `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID   *uint                `json:"tenantId,omitempty"`
	PropertyID *uint                `json:"propertyId,omitempty"`
	Channel    CommunicationChannel `gorm:"size:16" json:"channel"`
	Subject    string               `gorm:"size:255" json:"subject"`
	Body       string               `json:"body"`
	SentAt     time.Time            `json:"sentAt"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

func (Communication) TableName() string {
	return "communications"
}

// Setting is a key/value row. Value holds JSON text.
type Setting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"size:255;not null" json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Setting) TableName() string {
	return "settings"
}
