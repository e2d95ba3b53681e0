package mojang

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// texturesPropertyName is the recognized profile property carrying the
// texture references.
const texturesPropertyName = "textures"

// DecodeTextures extracts and decodes the "textures" property of a profile.
// The property value is a base64 encoded JSON object carrying optional SKIN
// and CAPE urls with a model hint. A profile without the property yields an
// empty TexturesProperty, not an error; game profiles created before the
// texture rollout legitimately lack it.
func DecodeTextures(p Profile) (TexturesProperty, error) {
	var prop TexturesProperty
	for _, property := range p.Properties {
		if property.Name != texturesPropertyName {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(property.Value)
		if err != nil {
			return prop, fmt.Errorf("%w: textures property base64: %v", ErrMalformed, err)
		}
		if err := json.Unmarshal(raw, &prop); err != nil {
			return prop, fmt.Errorf("%w: textures property json: %v", ErrMalformed, err)
		}
		return prop, nil
	}
	return prop, nil
}

// EncodeTextures is the inverse of DecodeTextures. It is used by tests and
// tooling to build profile fixtures.
func EncodeTextures(prop TexturesProperty) (ProfileProperty, error) {
	raw, err := json.Marshal(prop)
	if err != nil {
		return ProfileProperty{}, fmt.Errorf("mojang: encode textures property: %w", err)
	}
	return ProfileProperty{
		Name:  texturesPropertyName,
		Value: base64.StdEncoding.EncodeToString(raw),
	}, nil
}
