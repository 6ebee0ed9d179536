package modbus

import "sync"

// Counter identifies one of the transaction statistics.
type Counter int

const (
	CntRequests Counter = iota
	CntRetries
	CntResponses
	CntExceptions
	CntCRCErrors
	CntMalformed
	CntUnexpected
	CntTimeouts
	CntCancelled
	CntBusy

	cntNum = iota
)

var counterNames = [cntNum]string{
	CntRequests:   "requests",
	CntRetries:    "retries",
	CntResponses:  "responses",
	CntExceptions: "exceptions",
	CntCRCErrors:  "crc errors",
	CntMalformed:  "malformed",
	CntUnexpected: "unexpected",
	CntTimeouts:   "timeouts",
	CntCancelled:  "cancelled",
	CntBusy:       "busy",
}

func (c Counter) String() string {
	if c < 0 || int(c) >= cntNum {
		return "unknown"
	}
	return counterNames[c]
}

// Counters are safe to read from any goroutine while the owning manager
// updates them.
type Counters struct {
	mu sync.Mutex
	ca [cntNum]uint64
}

func (c *Counters) Inc(cnt Counter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cnt < 0 || int(cnt) >= cntNum {
		return
	}
	c.ca[cnt]++
}

func (c *Counters) Get(cnt Counter) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cnt < 0 || int(cnt) >= cntNum {
		return 0
	}
	return c.ca[cnt]
}

// Snapshot returns all counters keyed by name.
func (c *Counters) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, cntNum)
	for i, v := range c.ca {
		out[counterNames[i]] = v
	}
	return out
}

func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ca = [cntNum]uint64{}
}
