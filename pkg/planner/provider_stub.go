package planner

import (
	"context"
	"sync"
)

type StubProvider struct {
	mu      sync.RWMutex
	records []Record
	err     error
}

func NewStubProvider(records ...Record) *StubProvider {
	return &StubProvider{records: records}
}

func (p *StubProvider) ListRecords(ctx context.Context) ([]Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.err != nil {
		return nil, p.err
	}
	result := make([]Record, len(p.records))
	copy(result, p.records)
	return result, nil
}

func (p *StubProvider) SetRecords(records ...Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = records
}

func (p *StubProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
