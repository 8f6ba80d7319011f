package ledger

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxIdempotencyKeyLength ledger_entries.idempotency_keyの桁数
const MaxIdempotencyKeyLength = 180

var validate = validator.New(validator.WithRequiredStructEnabled())

// Operation 台帳操作の付帯情報
type Operation struct {
	OperationType  string                 `validate:"required,max=64"`
	Currency       string                 `validate:"omitempty,alpha,max=16"`
	CorrelationID  string                 `validate:"omitempty,max=128"`
	IdempotencyKey string                 `validate:"omitempty,max=180"`
	Meta           map[string]interface{} `validate:"-"`
}

// Validate 境界でのバリデーション
func (o Operation) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOperation, formatValidationError(err))
	}
	return nil
}

// HasIdempotencyKey 冪等キーが指定されているかどうかを返す
func (o Operation) HasIdempotencyKey() bool {
	return o.IdempotencyKey != ""
}

// formatValidationError validatorのエラーを読みやすい形式に変換
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msg := ""
	for i, e := range validationErrors {
		if i > 0 {
			msg += ", "
		}
		switch e.Tag() {
		case "required":
			msg += fmt.Sprintf("%s is required", e.Field())
		case "max":
			msg += fmt.Sprintf("%s must have maximum length %s", e.Field(), e.Param())
		default:
			msg += fmt.Sprintf("%s is invalid (%s)", e.Field(), e.Tag())
		}
	}
	return msg
}
