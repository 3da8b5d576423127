package testutil

import (
	"context"
	"sync"

	"lens-viewer/pkg/backend"
)

type RangeCall struct {
	Start, End float64
}

type CountCall struct {
	Center float64
	Count  int
}

// MockBackend is a scriptable backend.Backend for engine tests. Static
// responses are used unless the matching *Func hook is set; hooks can block
// on channels to control completion order. Safe for concurrent use.
type MockBackend struct {
	EndFunc           func(ctx context.Context) (float64, error)
	PlotsFunc         func(ctx context.Context, start, end float64) (*backend.PlotsResult, error)
	FramesByCountFunc func(ctx context.Context, center float64, count int) ([]backend.Frame, error)
	FramesByRangeFunc func(ctx context.Context, start, end float64) ([]backend.Frame, error)
	InfoFunc          func(ctx context.Context) (*backend.ServerInfo, error)

	mu          sync.Mutex
	end         float64
	endErr      error
	plots       *backend.PlotsResult
	plotsErr    error
	coarse      []backend.Frame
	coarseErr   error
	detailed    []backend.Frame
	detailedErr error
	info        *backend.ServerInfo
	infoErr     error

	endCalls           int
	plotsCalls         []RangeCall
	framesByCountCalls []CountCall
	framesByRangeCalls []RangeCall
	infoCalls          int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		plots: &backend.PlotsResult{},
		info:  &backend.ServerInfo{Version: "0.1.0", RestProtocolVersion: "0.1.0"},
	}
}

func (m *MockBackend) SetEnd(end float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end, m.endErr = end, err
}

func (m *MockBackend) SetPlots(res *backend.PlotsResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plots, m.plotsErr = res, err
}

func (m *MockBackend) SetCoarseFrames(frames []backend.Frame, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coarse, m.coarseErr = frames, err
}

func (m *MockBackend) SetDetailedFrames(frames []backend.Frame, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailed, m.detailedErr = frames, err
}

func (m *MockBackend) SetInfo(info *backend.ServerInfo, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info, m.infoErr = info, err
}

func (m *MockBackend) QueryEnd(ctx context.Context) (float64, error) {
	m.mu.Lock()
	m.endCalls++
	end, err, fn := m.end, m.endErr, m.EndFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return end, err
}

func (m *MockBackend) QueryPlots(ctx context.Context, start, end float64) (*backend.PlotsResult, error) {
	m.mu.Lock()
	m.plotsCalls = append(m.plotsCalls, RangeCall{Start: start, End: end})
	res, err, fn := m.plots, m.plotsErr, m.PlotsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}
	return clonePlots(res), nil
}

func (m *MockBackend) QueryFramesByCount(ctx context.Context, center float64, count int) ([]backend.Frame, error) {
	m.mu.Lock()
	m.framesByCountCalls = append(m.framesByCountCalls, CountCall{Center: center, Count: count})
	frames, err, fn := m.coarse, m.coarseErr, m.FramesByCountFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, center, count)
	}
	if err != nil {
		return nil, err
	}
	return append([]backend.Frame(nil), frames...), nil
}

func (m *MockBackend) QueryFramesByRange(ctx context.Context, start, end float64) ([]backend.Frame, error) {
	m.mu.Lock()
	m.framesByRangeCalls = append(m.framesByRangeCalls, RangeCall{Start: start, End: end})
	frames, err, fn := m.detailed, m.detailedErr, m.FramesByRangeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}
	return append([]backend.Frame(nil), frames...), nil
}

func (m *MockBackend) Info(ctx context.Context) (*backend.ServerInfo, error) {
	m.mu.Lock()
	m.infoCalls++
	info, err, fn := m.info, m.infoErr, m.InfoFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return nil, err
	}
	cp := *info
	return &cp, nil
}

func (m *MockBackend) EndCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endCalls
}

func (m *MockBackend) InfoCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoCalls
}

func (m *MockBackend) PlotsCalls() []RangeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RangeCall(nil), m.plotsCalls...)
}

func (m *MockBackend) FramesByCountCalls() []CountCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CountCall(nil), m.framesByCountCalls...)
}

func (m *MockBackend) FramesByRangeCalls() []RangeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RangeCall(nil), m.framesByRangeCalls...)
}

func clonePlots(p *backend.PlotsResult) *backend.PlotsResult {
	if p == nil {
		return &backend.PlotsResult{}
	}
	out := &backend.PlotsResult{
		Strings:     make(map[int32]string, len(p.Strings)),
		ThreadNames: make(map[int32]string, len(p.ThreadNames)),
		Zones:       append([]backend.Zone(nil), p.Zones...),
		Plots:       append([]backend.HeapSample(nil), p.Plots...),
	}
	for k, v := range p.Strings {
		out.Strings[k] = v
	}
	for k, v := range p.ThreadNames {
		out.ThreadNames[k] = v
	}
	return out
}
