package enums

import "fmt"

// CryptoNetwork names the chains the custodial wallet accepts deposits on.
type CryptoNetwork string

const (
	CryptoNetworkBitcoin  CryptoNetwork = "bitcoin"
	CryptoNetworkEthereum CryptoNetwork = "ethereum"
	CryptoNetworkTron     CryptoNetwork = "tron"
	CryptoNetworkSolana   CryptoNetwork = "solana"
)

var validCryptoNetworks = []CryptoNetwork{
	CryptoNetworkBitcoin,
	CryptoNetworkEthereum,
	CryptoNetworkTron,
	CryptoNetworkSolana,
}

// String implements fmt.Stringer.
func (c CryptoNetwork) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CryptoNetwork) IsValid() bool {
	for _, candidate := range validCryptoNetworks {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCryptoNetwork converts raw input into a CryptoNetwork.
func ParseCryptoNetwork(value string) (CryptoNetwork, error) {
	for _, candidate := range validCryptoNetworks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid crypto network %q", value)
}
