package backend

// Frame is one frame of the traced application.
type Frame struct {
	Number     int64   `json:"number"`
	Start      float64 `json:"start"`
	DurationNs int64   `json:"duration_ns"`
	End        float64 `json:"end"`
}

// Zone is a timed span on one thread. Depth is its nesting level.
type Zone struct {
	EntryID    int64   `json:"entry_id"`
	ZoneUID    int64   `json:"zone_uid"`
	Color      uint32  `json:"color"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	DurationNs int64   `json:"duration_ns"`
	Depth      uint32  `json:"depth"`
	NameID     int32   `json:"name_id"`
	ThreadID   int32   `json:"thread_id"`
}

// HeapSample is one point of the heap usage series.
type HeapSample struct {
	T    float64 `json:"t"`
	Used float64 `json:"used"`
}

// PlotsResult is the payload of /data/plots.
type PlotsResult struct {
	Strings     map[int32]string `json:"strings"`
	ThreadNames map[int32]string `json:"thread_names"`
	Zones       []Zone           `json:"zones"`
	Plots       []HeapSample     `json:"plots"`
}

// Empty reports whether the response carried neither zones nor heap samples.
func (p *PlotsResult) Empty() bool {
	return len(p.Zones) == 0 && len(p.Plots) == 0
}

// ServerInfo is returned by the server root endpoint.
type ServerInfo struct {
	Motd                string `json:"motd"`
	Version             string `json:"version"`
	LibProtocolVersion  string `json:"lib-protocol-version"`
	RestProtocolVersion string `json:"rest-protocol-version"`
}

// durations on the wire are nanoseconds, times are seconds
const nsToSeconds = 1e-9

func (f *Frame) normalize() {
	if f.Start == 0 && f.DurationNs != 0 {
		f.Start = f.End - float64(f.DurationNs)*nsToSeconds
	}
}

func (z *Zone) normalize() {
	if z.Start == 0 && z.DurationNs != 0 {
		z.Start = z.End - float64(z.DurationNs)*nsToSeconds
	}
}
