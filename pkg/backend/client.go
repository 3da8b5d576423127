package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

const (
	EndpointInfo          = "/"
	EndpointZonesEnd      = "/data/zones-end"
	EndpointPlots         = "/data/plots"
	EndpointFramesByCount = "/data/frame-times/query-count"
	EndpointFramesByRange = "/data/frame-times/query-range"
	EndpointShutdown      = "/serverctl/shutdown"

	// SessionHeader identifies the viewer session in server logs.
	SessionHeader = "X-Lens-Session"

	statusOK = "ok"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements Backend over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	sessionID string
}

// NewClient creates a client for the server at baseURL. A zero timeout means
// requests never time out on their own; cancellation is left to the context.
func NewClient(baseURL string, timeout time.Duration, sessionID string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		sessionID: sessionID,
	}
}

// NewClientWithHTTP is used by tests to inject a custom *http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client, sessionID string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, sessionID: sessionID}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) QueryEnd(ctx context.Context) (float64, error) {
	var out struct {
		End float64 `json:"end"`
	}
	if err := c.get(ctx, EndpointZonesEnd, nil, &out); err != nil {
		return 0, err
	}
	return out.End, nil
}

func (c *Client) QueryPlots(ctx context.Context, start, end float64) (*PlotsResult, error) {
	params := url.Values{}
	params.Set("start", formatFloat(start))
	params.Set("end", formatFloat(end))

	var out PlotsResult
	if err := c.get(ctx, EndpointPlots, params, &out); err != nil {
		return nil, err
	}
	for i := range out.Zones {
		out.Zones[i].normalize()
	}
	return &out, nil
}

func (c *Client) QueryFramesByCount(ctx context.Context, center float64, count int) ([]Frame, error) {
	params := url.Values{}
	params.Set("t", formatFloat(center))
	params.Set("count", strconv.Itoa(count))
	return c.frames(ctx, EndpointFramesByCount, params)
}

func (c *Client) QueryFramesByRange(ctx context.Context, start, end float64) ([]Frame, error) {
	params := url.Values{}
	params.Set("start", formatFloat(start))
	params.Set("end", formatFloat(end))
	return c.frames(ctx, EndpointFramesByRange, params)
}

func (c *Client) frames(ctx context.Context, endpoint string, params url.Values) ([]Frame, error) {
	var out struct {
		Results []Frame `json:"results"`
	}
	if err := c.get(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	for i := range out.Results {
		out.Results[i].normalize()
	}
	return out.Results, nil
}

// Info queries the server root. Unlike the data endpoints it has no envelope.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	body, err := c.do(ctx, EndpointInfo, nil)
	if err != nil {
		return nil, err
	}
	var info ServerInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrTransport, EndpointInfo, err)
	}
	return &info, nil
}

// ShutdownServer asks the server to shut itself down and returns its message.
func (c *Client) ShutdownServer(ctx context.Context) (string, error) {
	var out struct {
		Info string `json:"info"`
	}
	if err := c.get(ctx, EndpointShutdown, nil, &out); err != nil {
		return "", err
	}
	return out.Info, nil
}

// get performs the request, checks the status envelope and decodes the payload.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	body, err := c.do(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := checkEnvelope(endpoint, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s: %v", ErrTransport, endpoint, err)
	}
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the server may still explain itself through the envelope
		if gjson.ValidBytes(body) && gjson.GetBytes(body, "status").Exists() {
			if err := checkEnvelope(endpoint, body); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrTransport, endpoint, resp.StatusCode)
	}
	return body, nil
}

// checkEnvelope inspects the {status, error} envelope without decoding the payload.
func checkEnvelope(endpoint string, body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: %s: invalid JSON body", ErrTransport, endpoint)
	}
	status := gjson.GetBytes(body, "status")
	if !status.Exists() {
		return fmt.Errorf("%w: %s: missing status field", ErrTransport, endpoint)
	}
	if status.String() != statusOK {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = "no error message"
		}
		return &StatusError{Endpoint: endpoint, Status: status.String(), Message: msg}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
