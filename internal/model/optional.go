package model

import "encoding/json"

// Optional はJSONの「キーなし」「null」「値あり」を区別して保持する。
// 部分更新リクエストでnullによるクリアと未指定を見分けるために使う。
type Optional[T any] struct {
	Set   bool // キーが存在した
	Valid bool // 値がnullでない
	Value T
}

// Some は値ありのOptionalを返す。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null は明示的なnullを表すOptionalを返す。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// キーが存在する場合のみ呼ばれるため、呼ばれた時点でSetを立てる。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr は値ありならそのポインタを、nullまたは未指定ならnilを返す。
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
