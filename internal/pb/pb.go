// Package pb holds the wire types and service descriptor of the xenos
// ProfileService. The service runs with a json codec (see Codec), so the
// message structs double as both grpc payloads and rest bodies.
package pb

// UuidRequest asks for the uuid of a single username.
type UuidRequest struct {
	Username string `json:"username"`
}

// UuidResponse carries a resolved username. Username holds the canonical
// casing as known upstream; Timestamp is the unix second the underlying
// cache entry was created.
type UuidResponse struct {
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Uuid      string `json:"uuid"`
	Legacy    bool   `json:"legacy,omitempty"`
	Demo      bool   `json:"demo,omitempty"`
}

// UuidsRequest asks for the uuids of a set of usernames.
type UuidsRequest struct {
	Usernames []string `json:"usernames"`
}

// UuidsResponse answers a batch lookup in request order. Unresolved
// usernames keep the caller's casing and carry an empty uuid.
type UuidsResponse struct {
	Entries []*UuidsEntry `json:"entries"`
}

// UuidsEntry is one element of a batch answer.
type UuidsEntry struct {
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Uuid      string `json:"uuid,omitempty"`
	Found     bool   `json:"found"`
	Legacy    bool   `json:"legacy,omitempty"`
	Demo      bool   `json:"demo,omitempty"`
}

// ProfileRequest asks for a full profile, optionally with signed properties.
type ProfileRequest struct {
	Uuid   string `json:"uuid"`
	Signed bool   `json:"signed,omitempty"`
}

// ProfileProperty mirrors a single upstream profile property.
type ProfileProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// ProfileResponse carries a full profile.
type ProfileResponse struct {
	Timestamp      int64              `json:"timestamp"`
	Uuid           string             `json:"uuid"`
	Name           string             `json:"name"`
	Properties     []*ProfileProperty `json:"properties,omitempty"`
	ProfileActions []string           `json:"profileActions,omitempty"`
}

// SkinRequest asks for the skin texture of a profile.
type SkinRequest struct {
	Uuid string `json:"uuid"`
}

// SkinResponse carries png skin bytes. Default marks the built-in fallback.
type SkinResponse struct {
	Timestamp int64  `json:"timestamp"`
	Bytes     []byte `json:"bytes"`
	Model     string `json:"model"`
	Default   bool   `json:"default,omitempty"`
}

// CapeRequest asks for the cape texture of a profile.
type CapeRequest struct {
	Uuid string `json:"uuid"`
}

// CapeResponse carries png cape bytes.
type CapeResponse struct {
	Timestamp int64  `json:"timestamp"`
	Bytes     []byte `json:"bytes"`
}

// HeadRequest asks for the pre-rendered head of a profile.
type HeadRequest struct {
	Uuid    string `json:"uuid"`
	Overlay bool   `json:"overlay,omitempty"`
}

// HeadResponse carries the 8x8 png head bytes.
type HeadResponse struct {
	Timestamp int64  `json:"timestamp"`
	Bytes     []byte `json:"bytes"`
	Default   bool   `json:"default,omitempty"`
}
