package model

import "time"

const defaultHistoryCap = 60

// TelemetryPoint is a single timestamped sample stored in the ring buffer.
type TelemetryPoint struct {
	Timestamp time.Time
	CPUTemp   float64
	Humidity  float64
}

// TelemetryHistory is a fixed-size ring buffer of TelemetryPoints.
// When the buffer is full, new pushes overwrite the oldest entry.
type TelemetryHistory struct {
	buf  []TelemetryPoint
	head int // index of the next write position
	size int // number of valid entries
}

// NewTelemetryHistory creates a TelemetryHistory with the given capacity.
// If capacity <= 0, defaultHistoryCap (60) is used.
func NewTelemetryHistory(capacity int) *TelemetryHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &TelemetryHistory{
		buf: make([]TelemetryPoint, capacity),
	}
}

// PointFromSnapshot extracts the plottable values of a snapshot. ok is false
// when the snapshot carries neither a temperature nor a humidity reading.
func PointFromSnapshot(s StatusSnapshot) (TelemetryPoint, bool) {
	p := TelemetryPoint{Timestamp: s.FetchedAt}
	var haveTemp, haveHum bool
	if s.CPUTemp.Known {
		p.CPUTemp, haveTemp = LeadingNumber(s.CPUTemp.Text)
	}
	if s.Humidity.Known && s.Humidity.IsNum {
		p.Humidity, haveHum = s.Humidity.Num, true
	}
	return p, haveTemp || haveHum
}

// Push appends a new point to the history, overwriting the oldest if full.
func (h *TelemetryHistory) Push(p TelemetryPoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries in the history.
func (h *TelemetryHistory) Len() int {
	return h.size
}

// Values returns the named series in chronological order (oldest first).
// Valid field names are FieldCPUTemp and FieldHumidity; anything else yields zeros.
func (h *TelemetryHistory) Values(field string) []float64 {
	out := make([]float64, h.size)
	// oldest entry sits at (head - size + cap) % cap
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		p := h.buf[(start+i)%len(h.buf)]
		switch field {
		case FieldCPUTemp:
			out[i] = p.CPUTemp
		case FieldHumidity:
			out[i] = p.Humidity
		}
	}
	return out
}
