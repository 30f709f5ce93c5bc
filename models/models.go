package models

// Bar represents a single OHLCV sample. Time is epoch seconds, UTC; bars
// coming out of the store are aligned to the base-resolution grid.
type Bar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Query result statuses. Unknown symbol is the only error status; every
// known-symbol-but-empty outcome collapses into StatusNoData.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
	StatusError  = "error"
)

// QueryResult is the payload a bar query produces. Bars is nil unless
// Status is StatusOK.
type QueryResult struct {
	Status string `json:"status"`
	Bars   []Bar  `json:"bars,omitempty"`
}

// SymbolInfo describes a tradable symbol. Metadata only, never bar data:
// a symbol may be registered with no backing series.
type SymbolInfo struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// HistoryResponse is the columnar envelope served to charting clients:
// parallel arrays indexed together, one entry per bar.
type HistoryResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t,omitempty"`
	Opens   []float64 `json:"o,omitempty"`
	Highs   []float64 `json:"h,omitempty"`
	Lows    []float64 `json:"l,omitempty"`
	Closes  []float64 `json:"c,omitempty"`
	Volumes []int64   `json:"v,omitempty"`
	ErrMsg  string    `json:"errmsg,omitempty"`
}

// NewHistoryResponse shapes a query result into the columnar envelope.
func NewHistoryResponse(res QueryResult) HistoryResponse {
	if res.Status != StatusOK {
		return HistoryResponse{Status: res.Status}
	}
	h := HistoryResponse{
		Status:  StatusOK,
		Times:   make([]int64, 0, len(res.Bars)),
		Opens:   make([]float64, 0, len(res.Bars)),
		Highs:   make([]float64, 0, len(res.Bars)),
		Lows:    make([]float64, 0, len(res.Bars)),
		Closes:  make([]float64, 0, len(res.Bars)),
		Volumes: make([]int64, 0, len(res.Bars)),
	}
	for _, b := range res.Bars {
		h.Times = append(h.Times, b.Time)
		h.Opens = append(h.Opens, b.Open)
		h.Highs = append(h.Highs, b.High)
		h.Lows = append(h.Lows, b.Low)
		h.Closes = append(h.Closes, b.Close)
		h.Volumes = append(h.Volumes, b.Volume)
	}
	return h
}
