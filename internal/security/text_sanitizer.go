// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力する自由記述テキスト（タスク本文、メモ、カテゴリ名、氏名）から
// HTMLマークアップを取り除き、プレーンテキストとして保存できる形にする。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// Sanitize は全てのタグを除去したプレーンテキストを返す。
	// script/styleなどの要素は中身ごと除去する。
	// 文字参照は元の文字に戻すため、"Tom & Jerry" はそのまま保持される。
	// 文字参照で書かれたタグ（"&lt;b&gt;"）も復元後に除去する。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので1つを共有する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないポリシーでTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はTextSanitizerを実装する。
func (s *textSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	// 復元した文字列が再びマークアップを含む場合があるため、変化しなくなるまで繰り返す
	out := text
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return out
		}
		out = next
	}
	// 多重に符号化された入力は最後のエスケープ結果をそのまま保存する
	return s.policy.Sanitize(out)
}

// maxSanitizePasses は1回の符号化につき1パスを要する。
const maxSanitizePasses = 8

// SanitizePtr はnilを保ったままSanitizeを適用する。
func SanitizePtr(s TextSanitizer, text *string) *string {
	if text == nil {
		return nil
	}
	v := s.Sanitize(*text)
	return &v
}
