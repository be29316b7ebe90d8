package models

// ChangeType is the kind of mutation reported by the change stream.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// EventMask selects which change types a subscriber wants.
type EventMask uint8

const (
	MaskCreate EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskCreate | MaskUpdate | MaskDelete
)

// Has reports whether the mask admits change type t.
func (m EventMask) Has(t ChangeType) bool {
	switch t {
	case ChangeCreate:
		return m&MaskCreate != 0
	case ChangeUpdate:
		return m&MaskUpdate != 0
	case ChangeDelete:
		return m&MaskDelete != 0
	default:
		return false
	}
}

// ChangeEvent is one notification from the content store.
type ChangeEvent struct {
	Collection string     `json:"collection"`
	Type       ChangeType `json:"type"`
	ID         string     `json:"id"`
}
