// Package quote はホーム画面のバナーに表示する励ましの一言を提供する。
package quote

import "math/rand"

var defaultQuotes = []string{
	"Every day is a new beginning. Take a deep breath and start again.",
	"You are capable of amazing things. Believe in yourself today.",
	"Progress, not perfection. Every step forward counts.",
	"Today is your day to shine. You've got this!",
	"Small steps every day lead to big changes over time.",
	"You are stronger than you think and more loved than you know.",
	"Today's accomplishments are tomorrow's foundations.",
	"Your potential is endless. Focus on what you can do today.",
	"Every task completed is a victory worth celebrating.",
	"You have the power to make today amazing.",
	"Trust the process. You're exactly where you need to be.",
	"Today is a perfect day to start something wonderful.",
	"Your dreams are valid. Take one step closer today.",
	"You are worthy of all the good things coming your way.",
	"Today's efforts are tomorrow's results. Keep going!",
	"You have survived 100% of your worst days. You're doing great.",
	"Every moment is a fresh beginning. Make it count.",
	"You are not just existing, you are growing and becoming.",
	"Today is full of possibilities. Choose to see them.",
	"Your journey is unique and beautiful. Embrace every step.",
}

// Picker は一覧から一言をランダムに選ぶ。
type Picker struct {
	quotes []string
	intN   func(n int) int
}

// NewPicker は組み込みの一覧を使うPickerを生成する。
func NewPicker() *Picker {
	return &Picker{quotes: defaultQuotes, intN: rand.Intn}
}

// Random は一言を1つ返す。一覧が空なら空文字列。
func (p *Picker) Random() string {
	if len(p.quotes) == 0 {
		return ""
	}
	return p.quotes[p.intN(len(p.quotes))]
}

// Count は一覧の件数を返す。
func (p *Picker) Count() int {
	return len(p.quotes)
}
