// state/interfaces.go
package state

// RoomContext is the minimal view of a room a phase needs.
// It keeps the state package free of an import on room.
type RoomContext interface {
	GetID() string
}
