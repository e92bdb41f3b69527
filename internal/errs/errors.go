package errs

import (
    "errors"
    "fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
    ErrNotFound = errors.New("not_found")
    ErrConflict = errors.New("conflict")
    ErrInvalid  = errors.New("invalid")
    // ErrUnprocessable is used for semantic validation failures (missing required input)
    ErrUnprocessable = errors.New("unprocessable")
)

// Code is the stable machine-readable identifier of a ledger error.
type Code string

const (
    CodeCategoryNotFound          Code = "category_not_found"
    CodeDuplicate                 Code = "duplicate"
    CodeNotFound                  Code = "not_found"
    CodeExpenseNotFound           Code = "expense_not_found"
    CodeInvalidAmount             Code = "invalid_amount"
    CodeInvalidDescription        Code = "invalid_description"
    CodeInvalidType               Code = "invalid_type"
    CodeInvalidDate               Code = "invalid_date"
    CodeMissingDates              Code = "missing_dates"
    CodeInvalidTaxMode            Code = "invalid_tax_mode"
    CodeLedgerAccountNotFound     Code = "ledger_account_not_found"
    CodeLedgerAccountTypeMismatch Code = "ledger_account_type_mismatch"
    CodeMissingFields             Code = "missing_fields"
)

// Error carries a code, a human message and structured details. It unwraps to
// one of the sentinels above so callers can branch with errors.Is.
type Error struct {
    Code    Code
    Message string
    Details map[string]any
}

func (e *Error) Error() string {
    if e.Message == "" { return string(e.Code) }
    return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
    switch e.Code {
    case CodeNotFound, CodeCategoryNotFound, CodeExpenseNotFound, CodeLedgerAccountNotFound:
        return ErrNotFound
    case CodeDuplicate:
        return ErrConflict
    case CodeMissingDates, CodeMissingFields:
        return ErrUnprocessable
    default:
        return ErrInvalid
    }
}

// New builds an *Error. details may be nil.
func New(code Code, details map[string]any, format string, args ...any) *Error {
    return &Error{Code: code, Message: fmt.Sprintf(format, args...), Details: details}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
    var e *Error
    if errors.As(err, &e) { return e.Code }
    return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool { return err != nil && CodeOf(err) == code }

// Detail returns a single detail value of the first *Error in err's chain.
func Detail(err error, key string) (any, bool) {
    var e *Error
    if !errors.As(err, &e) || e.Details == nil { return nil, false }
    v, ok := e.Details[key]
    return v, ok
}
