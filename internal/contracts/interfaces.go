package contracts

import "context"

// Kind names one of the three pre-computed snapshot tables
type Kind string

const (
	KindMarket   Kind = "market"
	KindIndustry Kind = "industry"
	KindTicker   Kind = "ticker"
)

// AllKinds lists the snapshot tables in load order
func AllKinds() []Kind {
	return []Kind{KindMarket, KindIndustry, KindTicker}
}

// Valid reports whether k is a known snapshot kind
func (k Kind) Valid() bool {
	switch k {
	case KindMarket, KindIndustry, KindTicker:
		return true
	}
	return false
}

// SnapshotSource loads one snapshot table from wherever it is stored
// ⭐ SSOT: 스냅샷 적재 인터페이스 (local, s3, postgres, http)
type SnapshotSource interface {
	// Name identifies the source for cache keys and logs
	Name() string
	Load(ctx context.Context, kind Kind) (*Dataset, error)
}
