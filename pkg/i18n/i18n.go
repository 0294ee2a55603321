package i18n

import (
	"reflect"
	"sync"
)

// Language type
type Language string

const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// Messages holds all translatable strings
type Messages struct {
	// System
	Starting        string
	ConfigLoaded    string
	ServerListening string
	ShuttingDown    string
	PaperMode       string
	LiveMode        string

	// Feed
	BinanceFeedStarted string
	MockFeedStarted    string
	WarmupComplete     string
	FeedConnected      string
	FeedDisconnected   string

	// Strategy
	StrategyLoaded string
	PairSignal     string

	// Risk
	DrawdownBreach    string
	DrawdownRecovered string

	// Orders
	OrderFilled string
	OrderFailed string

	// Notification header
	NotificationTitle string
}

var (
	currentLang Language = LangEN
	mu          sync.RWMutex
	messages    *Messages
)

// English messages
var messagesEN = Messages{
	Starting:        "Starting signal-core...",
	ConfigLoaded:    "Config loaded (mode: %s, symbols: %d)",
	ServerListening: "Dashboard listening on :%s",
	ShuttingDown:    "Shutting down gracefully...",
	PaperMode:       "Running in PAPER mode (orders will NOT hit exchange)",
	LiveMode:        "Running in %s mode: approved orders are sent to Binance",

	BinanceFeedStarted: "Binance trade stream started (%d symbols)",
	MockFeedStarted:    "Mock feed started",
	WarmupComplete:     "History warmup loaded %d klines",
	FeedConnected:      "Market feed connected",
	FeedDisconnected:   "Market feed disconnected: %s",

	StrategyLoaded: "Strategy loaded: %s (%s)",
	PairSignal:     "Pair %s/%s: %s (z=%.2f)",

	DrawdownBreach:    "TRADING HALTED: drawdown %.2f%% exceeds limit %.2f%% (equity %.2f, peak %.2f)",
	DrawdownRecovered: "Trading resumed: drawdown back to %.2f%% (limit %.2f%%)",

	OrderFilled: "Order filled: %s %s %.6f @ %.2f [%s]",
	OrderFailed: "Order failed: %s %s %.6f: %s",

	NotificationTitle: "SIGNAL-CORE NOTIFICATION",
}

// Traditional Chinese messages
var messagesZH = Messages{
	Starting:        "signal-core 啟動中...",
	ConfigLoaded:    "設定已載入（模式：%s，交易對：%d）",
	ServerListening: "儀表板監聽於 :%s",
	ShuttingDown:    "正在安全關閉...",
	PaperMode:       "以模擬交易模式執行（訂單不會送往交易所）",
	LiveMode:        "以 %s 模式執行：核准的訂單將送往 Binance",

	BinanceFeedStarted: "Binance 成交串流已啟動（%d 個交易對）",
	MockFeedStarted:    "模擬行情已啟動",
	WarmupComplete:     "歷史資料預載 %d 根 K 線",
	FeedConnected:      "行情連線已建立",
	FeedDisconnected:   "行情連線中斷：%s",

	StrategyLoaded: "已載入策略：%s（%s）",
	PairSignal:     "配對 %s/%s：%s（z=%.2f）",

	DrawdownBreach:    "交易已暫停：回撤 %.2f%% 超過上限 %.2f%%（權益 %.2f，峰值 %.2f）",
	DrawdownRecovered: "交易已恢復：回撤回到 %.2f%%（上限 %.2f%%）",

	OrderFilled: "訂單已成交：%s %s %.6f @ %.2f [%s]",
	OrderFailed: "訂單失敗：%s %s %.6f：%s",

	NotificationTitle: "SIGNAL-CORE 通知",
}

func init() {
	messages = &messagesEN
}

// SetLanguage sets the current language
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()

	currentLang = lang
	switch lang {
	case LangZH:
		messages = &messagesZH
	default:
		currentLang = LangEN
		messages = &messagesEN
	}
}

// GetLanguage returns the current language
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// M returns the current messages
func M() *Messages {
	mu.RLock()
	defer mu.RUnlock()
	return messages
}

// Get returns specific message by key dynamically using reflection
func Get(key string) string {
	msg := M()
	v := reflect.ValueOf(msg).Elem()
	f := v.FieldByName(key)
	if f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return key
}
