package budget

import "room-ledger/internal/domain/errcode"

var (
	// ErrBudgetNotFound 予算が見つからないエラー
	ErrBudgetNotFound = errcode.New("BUDGET_NOT_FOUND", "budget not found")
	// ErrBudgetFrozen 予算が凍結されているエラー
	ErrBudgetFrozen = errcode.New("BUDGET_FROZEN", "budget is frozen")
	// ErrInsufficientFunds 利用可能残高不足エラー
	ErrInsufficientFunds = errcode.New("INSUFFICIENT_FUNDS", "insufficient funds")
	// ErrInsufficientLockedFunds ロック残高不足エラー
	ErrInsufficientLockedFunds = errcode.New("INSUFFICIENT_LOCKED_FUNDS", "insufficient locked funds")
	// ErrBudgetAlreadyExists 予算が既に存在するエラー
	ErrBudgetAlreadyExists = errcode.New("BUDGET_ALREADY_EXISTS", "budget already exists")
	// ErrCurrencyMismatch 通貨が一致しないエラー
	ErrCurrencyMismatch = errcode.New("CURRENCY_MISMATCH", "currency mismatch")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errcode.New("VALIDATION_ERROR", "invalid user id")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errcode.New("VALIDATION_ERROR", "invalid amount")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errcode.New("VALIDATION_ERROR", "balance out of range")
)

// ErrInvalidStatus ステータスが無効
var ErrInvalidStatus = errcode.New("VALIDATION_ERROR", "invalid budget status")
