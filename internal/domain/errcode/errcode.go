package errcode

import "errors"

// CodeInternal コードを持たないエラーに割り当てるコード
const CodeInternal = "INTERNAL_ERROR"

// Error エラーコード付きのドメインエラー
// センチネルとして宣言し、errors.Isで判定する
type Error struct {
	code    string
	message string
	parent  *Error
}

// New 新しいErrorを作成
func New(code, message string) *Error {
	return &Error{code: code, message: message}
}

// Derive parentを細分化したErrorを作成
// コードはparentと同じで、errors.Isではparentとしても判定される
func Derive(parent *Error, message string) *Error {
	return &Error{code: parent.code, message: message, parent: parent}
}

// Unwrap 派生元のエラーを返す
func (e *Error) Unwrap() error {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// Error エラーメッセージを返す
func (e *Error) Error() string {
	return e.message
}

// Code エラーコードを返す
func (e *Error) Code() string {
	return e.code
}

// Code エラーチェーンからエラーコードを取り出す
func Code(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return CodeInternal
}
