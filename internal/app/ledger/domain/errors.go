package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized 沒有有效的 session，或資源屬於其他使用者
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound 找不到交易
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrConcurrentUpdate 帳戶在讀取後被其他請求修改 (version 不符)
	ErrConcurrentUpdate = errors.New("account modified concurrently")

	// ErrAccountAlreadyExists 帳戶已存在
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrTransactionAlreadyExists 交易已存在
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
)

// Issue 單一欄位的驗證錯誤
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 輸入資料格式錯誤，在任何儲存存取之前就會被偵測
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// StorageError 底層儲存操作失敗 (連線、約束、交易中止)
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Kind 錯誤分類，供 transport 決定回應碼
type Kind uint8

const (
	KindStorage Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "storage"
	}
}

// KindOf 將錯誤歸類。未知錯誤一律視為儲存失敗
func KindOf(err error) Kind {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrTransactionNotFound):
		return KindNotFound
	default:
		return KindStorage
	}
}

// validator 收集多個欄位錯誤，最後一次回傳
type validator struct {
	issues []Issue
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.issues = append(v.issues, Issue{Field: field, Message: message})
	}
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}
