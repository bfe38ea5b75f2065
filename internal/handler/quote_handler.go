package handler

import "net/http"

// QuotePicker は励ましの一言を1つ選ぶ。
type QuotePicker interface {
	Random() string
}

// QuoteHandler は励ましの一言を返すHTTPハンドラー。
type QuoteHandler struct {
	picker QuotePicker
}

// NewQuoteHandler はQuoteHandlerを生成する。
func NewQuoteHandler(picker QuotePicker) *QuoteHandler {
	return &QuoteHandler{picker: picker}
}

// RandomQuote はランダムに選んだ一言を返す。
// GET /api/quote
func (h *QuoteHandler) RandomQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"quote": h.picker.Random()})
}
