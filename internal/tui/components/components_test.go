package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/allbin/go-serialscope/modbus"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testRecord(seq uint64, dir stream.Direction, b ...byte) monitor.Record {
	return monitor.Record{Seq: seq, Frame: stream.NewFrame(b, dir, testTime)}
}

func TestFormatRecordViews(t *testing.T) {
	df := NewDataFormatter(numeric.FormatHex, numeric.FormatASCII)
	line := df.FormatRecord(testRecord(7, stream.RX, 'H', 'i', 0x0D))

	for _, want := range []string{"[10:00:00.000]", "RX", "#7", "HEX: 48 69 0D", "ASCII: Hi."} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatRecord() = %q, missing %q", line, want)
		}
	}

	df.ToggleTimestamps()
	df.Toggle(numeric.FormatASCII)
	df.Toggle(numeric.FormatDecimal)
	line = df.FormatRecord(testRecord(8, stream.TX, 1, 3))
	if strings.Contains(line, "[10:00") {
		t.Errorf("timestamps still shown: %q", line)
	}
	if strings.Contains(line, "ASCII:") {
		t.Errorf("ASCII view still shown: %q", line)
	}
	if !strings.Contains(line, "HEX: 01 03  DEC: 1 3") {
		t.Errorf("views out of order: %q", line)
	}
	if !strings.Contains(line, "TX") {
		t.Errorf("direction missing: %q", line)
	}
}

func TestFormatRecordWithoutViews(t *testing.T) {
	df := NewDataFormatter()
	line := df.FormatRecord(testRecord(1, stream.RX, 1, 2, 3))
	if !strings.Contains(line, "BYTES: 3") {
		t.Errorf("FormatRecord() = %q, want byte count", line)
	}
}

func TestFormatRecordModbus(t *testing.T) {
	df := NewDataFormatter(numeric.FormatHex)
	df.SetModbus(true)

	// Exception response: slave 1, function 0x83, illegal data address
	line := df.FormatRecord(testRecord(1, stream.RX, 0x01, 0x83, 0x02, 0xC0, 0xF1))
	if !strings.Contains(line, "MODBUS: slave 1") {
		t.Errorf("FormatRecord() = %q, want modbus summary", line)
	}

	line = df.FormatRecord(testRecord(2, stream.RX, 0x01, 0x83, 0x02, 0x00, 0x00))
	if !strings.Contains(line, "MODBUS: "+modbus.CrcMismatch.String()) {
		t.Errorf("FormatRecord() = %q, want CRC mismatch", line)
	}
}

func TestDisplayModeIsACopy(t *testing.T) {
	df := NewDataFormatter(numeric.FormatHex)
	mode := df.GetDisplayMode()
	mode.Views[numeric.FormatBinary] = true

	if df.GetDisplayMode().Has(numeric.FormatBinary) {
		t.Error("changing a returned DisplayMode changed the formatter")
	}
	if got := df.GetDisplayMode().Enabled(); len(got) != 1 || got[0] != numeric.FormatHex {
		t.Errorf("Enabled() = %v, want [hex]", got)
	}
}

func TestRenderViewWithoutMatches(t *testing.T) {
	tests := []struct {
		format numeric.Format
		want   string
	}{
		{numeric.FormatHex, "41 FF"},
		{numeric.FormatDecimal, "65 255"},
		{numeric.FormatBinary, "01000001 11111111"},
		{numeric.FormatASCII, "A."},
	}
	for _, tt := range tests {
		if got := RenderView([]byte{0x41, 0xFF}, tt.format, nil); got != tt.want {
			t.Errorf("RenderView(%s) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestRenderViewKeepsTokensInsideMatches(t *testing.T) {
	matches := []monitor.Match{{Rule: "ok", Offset: 1, Length: 2}}
	got := RenderView([]byte("xOKy"), numeric.FormatASCII, matches)
	if !strings.Contains(got, "O") || !strings.Contains(got, "K") || !strings.HasPrefix(got, "x") {
		t.Errorf("RenderView() = %q", got)
	}
	got = RenderView([]byte{1, 2, 3}, numeric.FormatHex, []monitor.Match{{Offset: 0, Length: 1}})
	if !strings.HasSuffix(got, "02 03") {
		t.Errorf("RenderView() = %q, want unmatched tail unchanged", got)
	}
}

func TestTerminalLimitAndRefresh(t *testing.T) {
	term := NewTerminal(80, 10)
	term.SetLimit(2)
	term.AddRecord(testRecord(1, stream.RX, 1))
	term.AddNotice(NoticeMsg{Timestamp: testTime, Text: "hello"})
	term.AddRecord(testRecord(2, stream.RX, 2))

	lines := term.Lines()
	if len(lines) != 2 {
		t.Fatalf("Lines() = %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "hello") {
		t.Errorf("oldest line not evicted: %q", lines[0])
	}

	term.Toggle(numeric.FormatDecimal)
	if !strings.Contains(term.Lines()[1], "DEC: 2") {
		t.Errorf("Refresh after toggle missing decimal view: %q", term.Lines()[1])
	}

	term.Clear()
	if len(term.Lines()) != 0 {
		t.Error("Clear() left lines behind")
	}
}

func TestTerminalTableSelection(t *testing.T) {
	df := NewDataFormatter(numeric.FormatHex)
	tt := NewTerminalTable(100, 10, df)

	if _, ok := tt.Selected(); ok {
		t.Error("empty table has a selection")
	}
	if tt.Detail() != "" {
		t.Error("empty table has a detail")
	}

	tt.SetRecords([]monitor.Record{
		testRecord(1, stream.RX, 0x01),
		testRecord(2, stream.TX, 0x41, 0x42),
	})
	tt.SetViewMode(ViewModeFollow)

	r, ok := tt.Selected()
	if !ok || r.Seq != 2 {
		t.Fatalf("Selected() = %d, %v; want the newest record", r.Seq, ok)
	}
	detail := tt.Detail()
	for _, want := range []string{"Frame #2", "2 bytes", "41 42", "AB", "MODBUS"} {
		if !strings.Contains(detail, want) {
			t.Errorf("Detail() missing %q:\n%s", want, detail)
		}
	}

	tt.GotoTop()
	if r, _ := tt.Selected(); r.Seq != 1 {
		t.Errorf("after GotoTop Selected() = %d, want 1", r.Seq)
	}

	df.ToggleModbus()
	tt.Refresh()
	tt.Clear()
	if _, ok := tt.Selected(); ok {
		t.Error("Clear() kept a selection")
	}
}

func TestViewModeString(t *testing.T) {
	if ViewModeFollow.String() != "FOLLOW" || ViewModeVisual.String() != "VISUAL" {
		t.Errorf("ViewMode strings = %s, %s", ViewModeFollow, ViewModeVisual)
	}
}

func TestInputBytes(t *testing.T) {
	tests := []struct {
		name    string
		mode    numeric.Format
		ending  numeric.LineEnding
		value   string
		want    []byte
		wantErr bool
	}{
		{"text with crlf", numeric.FormatASCII, numeric.LineEndingCRLF, "AT", []byte("AT\r\n"), false},
		{"text without ending", numeric.FormatASCII, numeric.LineEndingNone, "AT", []byte("AT"), false},
		{"hex ignores ending", numeric.FormatHex, numeric.LineEndingLF, "01 03", []byte{0x01, 0x03}, false},
		{"continuous hex", numeric.FormatHex, numeric.LineEndingNone, "0103", []byte{0x01, 0x03}, false},
		{"decimal", numeric.FormatDecimal, numeric.LineEndingLF, "72 105", []byte{72, 105}, false},
		{"binary", numeric.FormatBinary, numeric.LineEndingNone, "00000001", []byte{1}, false},
		{"bad hex", numeric.FormatHex, numeric.LineEndingNone, "0G", nil, true},
		{"empty hex", numeric.FormatHex, numeric.LineEndingNone, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput(tt.mode, tt.ending)
			in.SetValue(tt.value)
			got, err := in.Bytes()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Bytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != string(tt.want) {
				t.Errorf("Bytes() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestInputSendingModeCycle(t *testing.T) {
	in := NewInput(numeric.FormatASCII, numeric.LineEndingNone)
	var labels []string
	for range sendingModes {
		labels = append(labels, in.ModeLabel())
		in.ToggleSendingMode()
	}
	if got := strings.Join(labels, ","); got != "TEXT,HEX,DEC,BIN" {
		t.Errorf("mode cycle = %s", got)
	}
	if in.GetSendingMode() != numeric.FormatASCII {
		t.Errorf("cycle did not wrap, mode = %s", in.GetSendingMode())
	}

	in.SetSendingMode(numeric.FormatOctal)
	if in.GetSendingMode() != numeric.FormatASCII {
		t.Errorf("octal input should fall back to ascii, got %s", in.GetSendingMode())
	}
}

func TestInputLineEndingCycle(t *testing.T) {
	in := NewInput(numeric.FormatASCII, numeric.LineEndingCRLF)
	if got := in.ModeLabel(); got != "TEXT+CRLF" {
		t.Errorf("ModeLabel() = %q, want TEXT+CRLF", got)
	}

	in.CycleLineEnding()
	if in.LineEnding() != numeric.LineEndingNone || in.ModeLabel() != "TEXT" {
		t.Errorf("after wrap LineEnding() = %s, ModeLabel() = %q", in.LineEnding(), in.ModeLabel())
	}
	in.CycleLineEnding()
	in.SetValue("AT")
	got, err := in.Bytes()
	if err != nil || string(got) != "AT\r" {
		t.Errorf("Bytes() = %q, %v; want AT\\r", got, err)
	}

	in.SetSendingMode(numeric.FormatHex)
	if got := in.ModeLabel(); got != "HEX" {
		t.Errorf("hex ModeLabel() = %q, line ending should not show", got)
	}
}

func TestInputHistoryNavigation(t *testing.T) {
	in := NewInput(numeric.FormatASCII, numeric.LineEndingNone)
	in.AddToHistory("first")
	in.AddToHistory("second")
	in.AddToHistory("second")
	if got := in.History(); len(got) != 2 {
		t.Fatalf("History() = %v, want consecutive duplicates dropped", got)
	}

	in.SetValue("draft")
	in.NavigateHistoryUp()
	if in.Value() != "second" {
		t.Errorf("up = %q, want second", in.Value())
	}
	in.NavigateHistoryUp()
	in.NavigateHistoryUp()
	if in.Value() != "first" {
		t.Errorf("up past oldest = %q, want first", in.Value())
	}
	in.NavigateHistoryDown()
	in.NavigateHistoryDown()
	if in.Value() != "draft" {
		t.Errorf("down past newest = %q, want the draft back", in.Value())
	}
}

func TestStatusBarStatsText(t *testing.T) {
	sb := NewStatusBar("test", "/dev/ttyUSB0")
	sb.SetStats(StatsMsg{Stats: monitor.Stats{RXFrames: 3, RXBytes: 24, TXFrames: 1, TXBytes: 8}})
	if got := sb.StatsText(); got != "RX 3/24B TX 1/8B" {
		t.Errorf("StatsText() = %q", got)
	}

	sb.SetStats(StatsMsg{Stats: monitor.Stats{Matches: 2}, Pending: 5})
	if got := sb.StatsText(); !strings.Contains(got, "★2") || !strings.Contains(got, "…5B") {
		t.Errorf("StatsText() = %q, want matches and pending", got)
	}

	sb.SetWidth(200)
	bar := sb.ComprehensiveStatusBar("VISUAL", "", "VISUAL", true, "12:00:00")
	for _, want := range []string{"VISUAL", "/dev/ttyUSB0", "12:00:00"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar missing %q: %q", want, bar)
		}
	}
}

func TestStatusBarLineState(t *testing.T) {
	sb := NewStatusBar("test", "/dev/ttyUSB0")
	if sb.State() != LineConnecting {
		t.Fatalf("initial State() = %v, want connecting", sb.State())
	}
	sb.SetConnected()
	if sb.State() != LineOpen {
		t.Errorf("State() = %v, want open", sb.State())
	}
	sb.SetDisconnected(nil)
	if sb.State() != LineClosed || sb.Err() != nil {
		t.Errorf("clean close: State() = %v, Err() = %v", sb.State(), sb.Err())
	}
	closeErr := errors.New("device unplugged")
	sb.SetDisconnected(closeErr)
	if sb.State() != LineFailed || sb.Err() != closeErr {
		t.Errorf("failed close: State() = %v, Err() = %v", sb.State(), sb.Err())
	}

	sb.SetWidth(80)
	if bar := sb.ComprehensiveStatusBar("NORMAL", "", "", false, "12:00:00"); !strings.Contains(bar, "✗") || strings.Contains(bar, "test") {
		t.Errorf("narrow bar should show the failure and hide the title: %q", bar)
	}
}
