// Package mojang implements a thin client for the official Minecraft profile
// endpoints. Responses are parsed into wire types and every failure is
// classified once, at this boundary, into one of the sentinel errors below.
package mojang

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals that the upstream confirmed the absence of the
	// requested resource (204/404).
	ErrNotFound = errors.New("mojang: resource not found")

	// ErrRateLimited signals an upstream 429. The client never sleeps on it;
	// callers decide whether a stale fallback exists.
	ErrRateLimited = errors.New("mojang: rate limited by upstream")

	// ErrUnavailable signals a transport failure or upstream 5xx.
	ErrUnavailable = errors.New("mojang: upstream not available")

	// ErrMalformed signals a 2xx response whose body could not be decoded.
	ErrMalformed = errors.New("mojang: malformed upstream response")
)

// API is the upstream surface the resolver depends on. The batch lookup is
// constrained to at most ten usernames per call by the upstream contract;
// its result is unordered and sparse (absent usernames are simply missing).
type API interface {
	UUIDByName(ctx context.Context, name string) (UsernameResolved, error)
	UUIDsByNames(ctx context.Context, names []string) ([]UsernameResolved, error)
	Profile(ctx context.Context, id uuid.UUID, signed bool) (Profile, error)
	TextureBytes(ctx context.Context, url string) ([]byte, error)
}

// UsernameResolved is the upstream answer for a username to uuid lookup.
type UsernameResolved struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Legacy bool      `json:"legacy,omitempty"`
	Demo   bool      `json:"demo,omitempty"`
}

// Profile is a single Minecraft user profile with all current properties.
//
// The properties usually only include one property called "textures", but
// this may change over time, so it is kept as a list as that is what is
// specified in the JSON. Unknown properties are preserved verbatim. The
// profileActions are empty for non-sanctioned accounts.
type Profile struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Properties     []ProfileProperty `json:"properties,omitempty"`
	ProfileActions []string          `json:"profileActions,omitempty"`
}

// ProfileProperty is a single property of a profile. The signature is only
// present when the profile was requested with ?unsigned=false.
type ProfileProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// TexturesProperty is the decoded payload of the "textures" profile property.
type TexturesProperty struct {
	Timestamp         int64     `json:"timestamp"`
	ProfileID         uuid.UUID `json:"profileId"`
	ProfileName       string    `json:"profileName"`
	SignatureRequired bool      `json:"signatureRequired,omitempty"`
	Textures          Textures  `json:"textures"`
}

// Textures carries the optional skin and cape texture references.
type Textures struct {
	Skin *Texture `json:"SKIN,omitempty"`
	Cape *Texture `json:"CAPE,omitempty"`
}

// Texture is a single texture reference with an optional model hint.
type Texture struct {
	URL      string           `json:"url"`
	Metadata *TextureMetadata `json:"metadata,omitempty"`
}

// TextureMetadata holds the skin model, "slim" for the alex-style model.
// Absence means "classic".
type TextureMetadata struct {
	Model string `json:"model"`
}

// Model returns the skin model hint, defaulting to classic.
func (t *Texture) Model() string {
	if t.Metadata != nil && t.Metadata.Model == "slim" {
		return "slim"
	}
	return "classic"
}
