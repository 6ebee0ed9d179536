package monitor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allbin/go-serialscope/modbus"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

// Capture is the exported form of a session.
type Capture struct {
	Port     string          `yaml:"port,omitempty"`
	Line     string          `yaml:"line,omitempty"`
	Silence  time.Duration   `yaml:"silence"`
	Exported time.Time       `yaml:"exported"`
	Stats    CaptureStats    `yaml:"stats"`
	Frames   []CapturedFrame `yaml:"frames"`
}

type CaptureStats struct {
	RXBytes  uint64 `yaml:"rx-bytes"`
	TXBytes  uint64 `yaml:"tx-bytes"`
	RXFrames uint64 `yaml:"rx-frames"`
	TXFrames uint64 `yaml:"tx-frames"`
	Evicted  uint64 `yaml:"evicted,omitempty"`
}

// CapturedFrame is one record. Hex is the authoritative content; ASCII is
// for reading.
type CapturedFrame struct {
	Seq        uint64         `yaml:"seq"`
	Time       time.Time      `yaml:"time"`
	Direction  string         `yaml:"direction"`
	Length     int            `yaml:"length"`
	Hex        string         `yaml:"hex"`
	ASCII      string         `yaml:"ascii"`
	Highlights []string       `yaml:"highlights,omitempty"`
	Modbus     *ModbusSummary `yaml:"modbus,omitempty"`
}

// ModbusSummary is the RTU reading of a frame.
type ModbusSummary struct {
	Slave     byte   `yaml:"slave"`
	Function  string `yaml:"function"`
	Validity  string `yaml:"validity"`
	Exception string `yaml:"exception,omitempty"`
}

// Bytes parses the frame's hex content.
func (f CapturedFrame) Bytes() ([]byte, error) {
	if f.Hex == "" {
		return nil, nil
	}
	return numeric.ParseBytes(f.Hex, numeric.FormatHex)
}

// Record rebuilds the frame as a record without highlight matches.
func (f CapturedFrame) Record() (Record, error) {
	b, err := f.Bytes()
	if err != nil {
		return Record{}, fmt.Errorf("frame %d: %w", f.Seq, err)
	}
	dir := stream.RX
	if f.Direction == stream.TX.String() {
		dir = stream.TX
	}
	return Record{Seq: f.Seq, Frame: stream.NewFrame(b, dir, f.Time)}, nil
}

// CaptureOptions control what Capture includes.
type CaptureOptions struct {
	Port   string
	Modbus bool
	Now    time.Time
}

// NewCaptureFrame converts a record.
func NewCaptureFrame(r Record, withModbus bool) CapturedFrame {
	b := r.Frame.Bytes()
	cf := CapturedFrame{
		Seq:       r.Seq,
		Time:      r.Frame.Timestamp(),
		Direction: r.Frame.Direction().String(),
		Length:    len(b),
		Hex:       numeric.FormatBytes(b, numeric.FormatHex),
		ASCII:     numeric.FormatBytes(b, numeric.FormatASCII),
	}
	for _, m := range r.Matches {
		cf.Highlights = append(cf.Highlights, fmt.Sprintf("%s@%d", m.Rule, m.Offset))
	}
	if withModbus {
		cf.Modbus = summarize(modbus.Decode(r.Frame))
	}
	return cf
}

func summarize(resp modbus.Response) *ModbusSummary {
	s := &ModbusSummary{
		Slave:    resp.SlaveID,
		Function: resp.Function.String(),
		Validity: resp.Validity.String(),
	}
	if resp.IsException() {
		s.Exception = resp.Exception.String()
	}
	return s
}

// Capture snapshots the session's history for export.
func (s *Session) Capture(opts CaptureOptions) Capture {
	s.mu.Lock()
	records := s.history.Records()
	stats := s.stats
	s.mu.Unlock()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	c := Capture{
		Port:     opts.Port,
		Line:     s.cfg.Timing.String(),
		Silence:  s.silence,
		Exported: now,
		Stats: CaptureStats{
			RXBytes:  stats.RXBytes,
			TXBytes:  stats.TXBytes,
			RXFrames: stats.RXFrames,
			TXFrames: stats.TXFrames,
			Evicted:  stats.Evicted,
		},
		Frames: make([]CapturedFrame, 0, len(records)),
	}
	for _, r := range records {
		c.Frames = append(c.Frames, NewCaptureFrame(r, opts.Modbus))
	}
	return c
}

// Export writes c as YAML.
func Export(w io.Writer, c Capture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("monitor: export: %w", err)
	}
	return enc.Close()
}

// ReadCapture parses a capture written by Export.
func ReadCapture(r io.Reader) (Capture, error) {
	var c Capture
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Capture{}, nil
		}
		return Capture{}, fmt.Errorf("monitor: read capture: %w", err)
	}
	for _, f := range c.Frames {
		if _, err := f.Bytes(); err != nil {
			return Capture{}, fmt.Errorf("monitor: read capture: frame %d: %w", f.Seq, err)
		}
	}
	return c, nil
}
