package models

// InstrumentKind classifies a basket asset and selects the provider request family.
type InstrumentKind string

const (
	KindEquity InstrumentKind = "equity"
	KindIndex  InstrumentKind = "index"
	KindCrypto InstrumentKind = "crypto"
)

// IsValidInstrumentKind returns true if k is a supported kind.
func IsValidInstrumentKind(k InstrumentKind) bool {
	switch k {
	case KindEquity, KindIndex, KindCrypto:
		return true
	default:
		return false
	}
}

// Asset describes one member of the fixed market basket.
type Asset struct {
	Name   string // display name, also the key of the gains response
	Symbol string // provider symbol
	Kind   InstrumentKind
}
