package enums

import "fmt"

// AssetKind distinguishes single songs from curated baskets of songs.
type AssetKind string

const (
	AssetKindSong   AssetKind = "song"
	AssetKindBasket AssetKind = "basket"
)

var validAssetKinds = []AssetKind{
	AssetKindSong,
	AssetKindBasket,
}

// String implements fmt.Stringer.
func (a AssetKind) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AssetKind) IsValid() bool {
	for _, candidate := range validAssetKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssetKind converts raw input into an AssetKind.
func ParseAssetKind(value string) (AssetKind, error) {
	for _, candidate := range validAssetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset kind %q", value)
}
