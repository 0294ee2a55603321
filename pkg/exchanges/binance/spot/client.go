package spot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"signal-core/pkg/exchanges/common"
)

const (
	LiveBaseURL    = "https://api.binance.com"
	TestnetBaseURL = "https://testnet.binance.vision"
)

// ErrNoCredentials is returned by signed calls without an API key pair.
var ErrNoCredentials = errors.New("binance: API key/secret required")

// Config holds Binance credentials and client tuning.
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	BaseURL    string // overrides the testnet/live default
	RecvWindow int64  // ms
	// QtyPrecision is the number of decimals quantities are truncated to.
	QtyPrecision int32
	// OrdersPerSecond paces order placement; 0 means 10.
	OrdersPerSecond float64
	HTTPClient      *http.Client
	Logger          zerolog.Logger
}

// Client is a Binance spot trading client.
type Client struct {
	cfg         Config
	baseURL     string
	httpClient  *http.Client
	timeSync    *common.TimeSync
	rateLimiter *common.RateLimiter
	pacer       *rate.Limiter
	log         zerolog.Logger
}

func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = LiveBaseURL
		if cfg.Testnet {
			base = TestnetBaseURL
		}
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}
	if cfg.QtyPrecision == 0 {
		cfg.QtyPrecision = 6
	}
	if cfg.OrdersPerSecond <= 0 {
		cfg.OrdersPerSecond = 10
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	log := cfg.Logger.With().Str("component", "binance_spot").Bool("testnet", cfg.Testnet).Logger()

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: hc,
		pacer:      rate.NewLimiter(rate.Limit(cfg.OrdersPerSecond), 1),
		log:        log,
	}
	c.timeSync = common.NewTimeSync(c.GetServerTime, 30*time.Minute, log)
	// 1200 weight/min for spot
	c.rateLimiter = common.NewRateLimiter(1200, time.Minute, log)
	return c
}

// SubmitOrder places a spot order. Market orders are the default.
func (c *Client) SubmitOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return common.OrderResult{}, ErrNoCredentials
	}
	qty := FormatQuantity(req.Qty, c.cfg.QtyPrecision)
	if qty == "0" {
		return common.OrderResult{}, fmt.Errorf("binance: quantity %v rounds to zero", req.Qty)
	}
	if err := c.pacer.Wait(ctx); err != nil {
		return common.OrderResult{}, err
	}

	ordType := strings.ToUpper(string(req.Type))
	if ordType == "" {
		ordType = string(common.OrderTypeMarket)
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", ordType)
	params.Set("quantity", qty)
	params.Set("newOrderRespType", "RESULT")
	if req.Type == common.OrderTypeLimit {
		params.Set("price", strconv.FormatFloat(req.Price, 'f', -1, 64))
		params.Set("timeInForce", string(toBinanceTIF(req.TimeInForce)))
	}
	if req.ClientID != "" {
		params.Set("newClientOrderId", req.ClientID)
	}

	body, err := c.doSigned(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return common.OrderResult{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}
	executed, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	return common.OrderResult{
		ExchangeOrderID: strconv.FormatInt(resp.OrderID, 10),
		Status:          mapStatus(resp.Status),
		ClientID:        resp.ClientOrderID,
		ExecutedQty:     executed,
	}, nil
}

// doSigned timestamps, signs and performs the request.
func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if c.timeSync.Stale() {
		if err := c.timeSync.Sync(ctx); err != nil {
			c.log.Warn().Err(err).Msg("time sync failed; using local clock")
		}
	}
	if c.rateLimiter.ShouldDelay() {
		c.log.Warn().Msg("request weight above 90%; backing off 1s")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	params.Set("timestamp", strconv.FormatInt(c.timeSync.Now(), 10))
	params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
	params.Set("signature", sign(params.Encode(), c.cfg.APISecret))

	var (
		req      *http.Request
		err      error
		endpoint = c.baseURL + path
		encoded  = params.Encode()
	)
	switch method {
	case http.MethodGet, http.MethodDelete:
		// signed params go in the query string
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	c.rateLimiter.UpdateFromHeader(res.Header.Get("X-MBX-USED-WEIGHT-1M"))

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		return nil, apiError(method, path, res.StatusCode, body)
	}
	return body, nil
}

// GetServerTime fetches server time (ms).
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/time", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("server time status %d: %s", resp.StatusCode, string(b))
	}
	var res struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, err
	}
	return res.ServerTime, nil
}

// AccountInfo holds balances and permissions.
type AccountInfo struct {
	CanTrade   bool      `json:"canTrade"`
	UpdateTime int64     `json:"updateTime"`
	Balances   []Balance `json:"balances"`
}

// Balance represents an asset balance.
type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// GetAccountInfo returns account balances and basic flags.
func (c *Client) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, ErrNoCredentials
	}
	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}
	var info AccountInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode account info: %w", err)
	}
	return &info, nil
}

// QuoteBalance returns free plus locked balance of asset (e.g. USDT).
func (c *Client) QuoteBalance(ctx context.Context, asset string) (float64, error) {
	info, err := c.GetAccountInfo(ctx)
	if err != nil {
		return 0, err
	}
	total := decimal.Zero
	for _, b := range info.Balances {
		if !strings.EqualFold(b.Asset, asset) {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return 0, fmt.Errorf("parse %s free: %w", asset, err)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return 0, fmt.Errorf("parse %s locked: %w", asset, err)
		}
		total = total.Add(free).Add(locked)
	}
	return total.InexactFloat64(), nil
}

// WeightUsage reports the last request weight seen in response headers.
func (c *Client) WeightUsage() (used, limit int) {
	used, limit, _ = c.rateLimiter.Usage()
	return used, limit
}

type orderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	ExecutedQty   string `json:"executedQty"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func apiError(method, path string, status int, body []byte) error {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Msg != "" {
		return fmt.Errorf("binance %s %s status %d: code %d: %s", method, path, status, e.Code, e.Msg)
	}
	return fmt.Errorf("binance %s %s status %d: %s", method, path, status, string(body))
}

func mapStatus(s string) common.OrderStatus {
	switch strings.ToUpper(s) {
	case "NEW":
		return common.StatusNew
	case "PARTIALLY_FILLED":
		return common.StatusPartial
	case "FILLED":
		return common.StatusFilled
	case "CANCELED":
		return common.StatusCanceled
	case "REJECTED":
		return common.StatusRejected
	case "EXPIRED", "EXPIRED_IN_MATCH":
		return common.StatusExpired
	default:
		return common.StatusUnknown
	}
}

func toBinanceTIF(tif common.TimeInForce) common.TimeInForce {
	if tif == "" {
		return common.TIFGTC
	}
	return tif
}

// FormatQuantity truncates q to precision decimals without float noise.
func FormatQuantity(q float64, precision int32) string {
	d := decimal.NewFromFloat(q).Truncate(precision)
	if d.Sign() <= 0 {
		return "0"
	}
	return d.String()
}

func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
