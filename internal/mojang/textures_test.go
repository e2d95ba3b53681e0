package mojang

import (
	"errors"
	"testing"
)

func TestDecodeTexturesRoundTrip(t *testing.T) {
	want := TexturesProperty{
		Timestamp:   1700000000,
		ProfileID:   testID,
		ProfileName: "Hydrofin",
		Textures: Textures{
			Skin: &Texture{
				URL:      "http://textures.minecraft.net/texture/abc",
				Metadata: &TextureMetadata{Model: "slim"},
			},
			Cape: &Texture{URL: "http://textures.minecraft.net/texture/def"},
		},
	}
	prop, err := EncodeTextures(want)
	if err != nil {
		t.Fatalf("EncodeTextures: %v", err)
	}
	if prop.Name != "textures" {
		t.Fatalf("property name = %q", prop.Name)
	}

	got, err := DecodeTextures(Profile{ID: testID, Name: "Hydrofin", Properties: []ProfileProperty{prop}})
	if err != nil {
		t.Fatalf("DecodeTextures: %v", err)
	}
	if got.Textures.Skin == nil || got.Textures.Skin.URL != want.Textures.Skin.URL {
		t.Fatalf("skin = %+v", got.Textures.Skin)
	}
	if got.Textures.Skin.Model() != "slim" {
		t.Fatalf("model = %q, want slim", got.Textures.Skin.Model())
	}
	if got.Textures.Cape == nil || got.Textures.Cape.Model() != "classic" {
		t.Fatal("cape missing or model hint not defaulted")
	}
}

func TestDecodeTexturesMissingProperty(t *testing.T) {
	got, err := DecodeTextures(Profile{ID: testID, Name: "Hydrofin"})
	if err != nil {
		t.Fatalf("DecodeTextures: %v", err)
	}
	if got.Textures.Skin != nil || got.Textures.Cape != nil {
		t.Fatalf("got %+v, want empty textures", got)
	}
}

func TestDecodeTexturesBadPayload(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"broken base64", "%%%"},
		{"broken json", "e2Jyb2tlbg=="}, // "{broken"
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{Properties: []ProfileProperty{{Name: "textures", Value: tc.value}}}
			if _, err := DecodeTextures(p); !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}
