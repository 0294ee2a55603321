package order

import (
	"fmt"
	"strings"
	"time"

	"signal-core/pkg/exchanges/common"
)

// Mode selects the execution venue.
type Mode string

const (
	ModePaper   Mode = "paper"
	ModeTestnet Mode = "testnet"
	ModeLive    Mode = "live"
)

// ParseMode accepts PAPER/TESTNET/LIVE in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePaper, ModeTestnet, ModeLive:
		return m, nil
	default:
		return "", fmt.Errorf("unknown trading mode %q", s)
	}
}

// Order represents an approved trade intent.
type Order struct {
	ID        string           `json:"id"`
	Strategy  string           `json:"strategy"`
	Symbol    string           `json:"symbol"`
	Side      common.Side      `json:"side"`
	Type      common.OrderType `json:"type"`
	Quantity  float64          `json:"quantity"`
	Price     float64          `json:"price"` // reference price at signal time
	Mode      Mode             `json:"mode"`
	Reason    string           `json:"reason"`
	CreatedAt time.Time        `json:"created_at"`
}

// Notional returns quantity times reference price.
func (o Order) Notional() float64 { return o.Quantity * o.Price }

// Status is the terminal outcome of a submission.
type Status string

const (
	StatusFilled Status = "filled"
	StatusFailed Status = "failed"
)

// Result is what the router reports back for one order.
type Result struct {
	Status  Status        `json:"status"`
	ID      string        `json:"id,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Latency time.Duration `json:"latency"`
}

func (r Result) Filled() bool { return r.Status == StatusFilled }

// Execution pairs an order with its result.
type Execution struct {
	Order     Order     `json:"order"`
	Result    Result    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

func failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}
