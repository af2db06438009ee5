package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeReferentialIntegrity, status: http.StatusConflict, publicMsg: "record is still referenced", detailsOK: true},
		{code: CodeInsufficientBalance, status: http.StatusUnprocessableEntity, publicMsg: "insufficient balance", detailsOK: true},
		{code: CodeNegativeInventory, status: http.StatusUnprocessableEntity, publicMsg: "inventory cannot go negative", detailsOK: true},
		{code: CodeCreditLimitExceeded, status: http.StatusUnprocessableEntity, publicMsg: "credit limit exceeded", detailsOK: true},
		{code: CodeStorage, status: http.StatusServiceUnavailable, publicMsg: "storage unavailable", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestViolationCarriesRule(t *testing.T) {
	err := Violation("order.total_mismatch", "total does not reconcile")
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	if err.Rule() != "order.total_mismatch" {
		t.Fatalf("unexpected rule %q", err.Rule())
	}
	if got := err.Error(); got != "VALIDATION_ERROR[order.total_mismatch]: total does not reconcile" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("IsCode should see wrapped code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestStorageKeepsTypedErrors(t *testing.T) {
	typed := New(CodeInsufficientBalance, "short")
	if got := Storage(typed, "ignored"); got != typed {
		t.Fatalf("typed errors should pass through, got %v", got)
	}
	raw := stdErrors.New("disk I/O error")
	wrapped := Storage(raw, "insert usage")
	if !IsCode(wrapped, CodeStorage) {
		t.Fatalf("expected storage code, got %v", wrapped)
	}
	if !stdErrors.Is(wrapped, raw) {
		t.Fatalf("storage wrap should keep cause")
	}
	if Storage(nil, "nothing") != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestDumpIncludesRuleAndChain(t *testing.T) {
	err := fmt.Errorf("apply: %w", Violation("amount.positive", "amount must be positive"))
	dump := Dump(err)
	if dump.Code != CodeValidation || dump.Rule != "amount.positive" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(dump.Chain))
	}
}
