package snapshot

import (
	"context"

	"github.com/wonny/vnequity/internal/contracts"
)

// LoadRecorder receives one observation per source load
type LoadRecorder interface {
	RecordSnapshotLoad(source, kind string, rows int, err error)
}

// Metered reports every load of the wrapped source to a recorder
type Metered struct {
	source   contracts.SnapshotSource
	recorder LoadRecorder
}

// NewMetered wraps source
func NewMetered(source contracts.SnapshotSource, recorder LoadRecorder) *Metered {
	return &Metered{source: source, recorder: recorder}
}

// Name is the wrapped source's name
func (m *Metered) Name() string { return m.source.Name() }

// Load delegates to the wrapped source and records the outcome
func (m *Metered) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	ds, err := m.source.Load(ctx, kind)
	rows := 0
	if ds != nil {
		rows = ds.Len()
	}
	m.recorder.RecordSnapshotLoad(m.source.Name(), string(kind), rows, err)
	return ds, err
}
