package binance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
)

const (
	mainnetStreamBase = "wss://stream.binance.com:9443"
	testnetStreamBase = "wss://testnet.binance.vision"
)

// ErrInvalidTrade is returned for payloads that decode but carry unusable values.
var ErrInvalidTrade = errors.New("invalid trade payload")

// StreamBase returns the websocket host for public market streams.
func StreamBase(testnet bool) string {
	if testnet {
		return testnetStreamBase
	}
	return mainnetStreamBase
}

// CombinedTradeURL builds a single multiplexed trade stream for all symbols:
// <base>/stream?streams=btcusdt@trade/ethusdt@trade
func CombinedTradeURL(base string, symbols []string) (string, error) {
	if len(symbols) == 0 {
		return "", errors.New("no symbols to subscribe")
	}
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "/", "")))
		if s == "" {
			return "", fmt.Errorf("empty symbol in %v", symbols)
		}
		streams = append(streams, s+"@trade")
	}
	return fmt.Sprintf("%s/stream?streams=%s", strings.TrimRight(base, "/"), strings.Join(streams, "/")), nil
}

// envelope wraps every message on a combined stream.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type tradePayload struct {
	Event     string `json:"e" validate:"omitempty,eq=trade"`
	Symbol    string `json:"s" validate:"required"`
	Price     string `json:"p" validate:"required,numeric"`
	Qty       string `json:"q" validate:"omitempty,numeric"`
	TradeTime int64  `json:"T" validate:"gte=0"`
	BuyerIsMM bool   `json:"m"`
}

// TradeDecoder turns raw stream frames into trades. Both combined-stream
// envelopes and bare /ws payloads are accepted.
type TradeDecoder struct {
	validate *validator.Validate
}

func NewTradeDecoder() *TradeDecoder {
	return &TradeDecoder{validate: validator.New()}
}

// Decode parses a single frame.
func (d *TradeDecoder) Decode(raw []byte) (Trade, error) {
	payload := raw
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Trade{}, fmt.Errorf("decode frame: %w", err)
	}
	if len(env.Data) > 0 {
		payload = env.Data
	}

	var p tradePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Trade{}, fmt.Errorf("decode trade: %w", err)
	}
	if err := d.validate.Struct(&p); err != nil {
		return Trade{}, fmt.Errorf("%w: %v", ErrInvalidTrade, err)
	}

	price, err := strconv.ParseFloat(p.Price, 64)
	if err != nil || price <= 0 {
		return Trade{}, fmt.Errorf("%w: price %q", ErrInvalidTrade, p.Price)
	}
	var qty float64
	if p.Qty != "" {
		qty, _ = strconv.ParseFloat(p.Qty, 64)
	}

	return Trade{
		Symbol:       strings.ToUpper(p.Symbol),
		Price:        price,
		Qty:          qty,
		Time:         p.TradeTime,
		IsBuyerMaker: p.BuyerIsMM,
	}, nil
}
