package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToSentinel(t *testing.T) {
	cases := []struct {
		code Code
		want error
	}{
		{CodeNotFound, ErrNotFound},
		{CodeCategoryNotFound, ErrNotFound},
		{CodeDuplicate, ErrConflict},
		{CodeMissingDates, ErrUnprocessable},
		{CodeInvalidAmount, ErrInvalid},
		{CodeInvalidTaxMode, ErrInvalid},
	}
	for _, c := range cases {
		err := fmt.Errorf("wrapped: %w", New(c.code, nil, "x"))
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: expected errors.Is(%v)", c.code, c.want)
		}
		if CodeOf(err) != c.code {
			t.Fatalf("code: got %q want %q", CodeOf(err), c.code)
		}
	}
}

func TestDetail(t *testing.T) {
	err := New(CodeDuplicate, map[string]any{"existing_id": int64(7)}, "duplicate of #%d", 7)
	v, ok := Detail(err, "existing_id")
	if !ok || v.(int64) != 7 {
		t.Fatalf("detail: %v %v", v, ok)
	}
	if err.Error() != "duplicate: duplicate of #7" {
		t.Fatalf("message: %q", err.Error())
	}
	if Is(errors.New("plain"), CodeDuplicate) {
		t.Fatalf("plain error must not carry a code")
	}
}
