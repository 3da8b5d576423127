package backend

import "context"

// Backend defines the query surface of the trace server.
// This allows the engine to be driven by mocks in tests; *Client implements it.
type Backend interface {
	QueryEnd(ctx context.Context) (float64, error)
	QueryPlots(ctx context.Context, start, end float64) (*PlotsResult, error)
	QueryFramesByCount(ctx context.Context, center float64, count int) ([]Frame, error)
	QueryFramesByRange(ctx context.Context, start, end float64) ([]Frame, error)
	Info(ctx context.Context) (*ServerInfo, error)
}
