package binance

// Kline represents a single candlestick from the REST klines endpoint.
type Kline struct {
	Symbol    string
	OpenTime  int64 // ms
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime int64 // ms
}

// Trade is one decoded public trade event.
type Trade struct {
	Symbol       string
	Price        float64
	Qty          float64
	Time         int64 // trade time, ms
	IsBuyerMaker bool
}
