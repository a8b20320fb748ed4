package identity

import (
	"github.com/google/uuid"
	"github.com/olafr/tafl-client/pkg/log"
)

// Store is the local persistence port for the active game identifier
// and the client session token. All operations are best-effort: reads
// report absence instead of failing and write errors are swallowed, so
// core logic only ever branches on presence.
type Store interface {
	ActiveGame() (string, bool)
	SetActiveGame(id string)
	ClientToken() (string, bool)
	SetClientToken(token string)
}

// Locator is the location port for the active game identifier, the
// equivalent of a shareable URL query parameter. Like Store it fails
// soft.
type Locator interface {
	ActiveGame() (string, bool)
	SetActiveGame(id string)
}

// ResolveGameID resolves the game to resume at startup: the locator
// takes priority over the store. A false result means no known game,
// which triggers the new-game prompt instead of an auto-join.
func ResolveGameID(locator Locator, store Store) (string, bool) {
	if id, ok := locator.ActiveGame(); ok && id != "" {
		return id, true
	}
	if id, ok := store.ActiveGame(); ok && id != "" {
		return id, true
	}
	return "", false
}

// ClientSessionID returns the persistent opaque client token,
// generating and persisting it on first use. When persistence is
// unavailable the freshly generated token simply lives for this
// session only.
func ClientSessionID(store Store) string {
	if token, ok := store.ClientToken(); ok && token != "" {
		return token
	}
	token := uuid.NewString()
	store.SetClientToken(token)
	log.Debug("Generated new client session token")
	return token
}
