package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRoomExists is returned by a VideoProvider when a room with the requested
// name is already present. Provisioning treats it as success.
var ErrRoomExists = errors.New("video room already exists")

type Room struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type RoomOptions struct {
	ExpiresAt       time.Time
	MaxParticipants int
	EnableChat      bool
}

type TokenOptions struct {
	RoomName string
	UserName string
	IsOwner  bool
	TTL      time.Duration
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VideoProvider is the external video-conferencing collaborator.
type VideoProvider interface {
	CreateRoom(ctx context.Context, name string, opts RoomOptions) (*Room, error)
	CreateToken(ctx context.Context, opts TokenOptions) (*Token, error)
	// RoomURL derives the URL of a room from its name without a network call.
	RoomURL(name string) string
}

// RoomCache remembers resolved rooms between visits when the session record
// could not be updated.
type RoomCache interface {
	GetRoom(ctx context.Context, sessionID uint) (*Room, error)
	PutRoom(ctx context.Context, sessionID uint, room Room, ttl time.Duration) error
}

// RoomName is the deterministic provider room name for a session, so racing
// creators collide on the same resource.
func RoomName(sessionID uint) string {
	return fmt.Sprintf("session-%d", sessionID)
}

func IsRoomExists(err error) bool {
	return errors.Is(err, ErrRoomExists)
}
