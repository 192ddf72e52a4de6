package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrAlreadyExists, ErrStoreUnavailable,
		ErrInvalidToken, ErrTokenKindMismatch, ErrTokenExpired,
		ErrAccountNotFound, ErrUnknownFamily, ErrorValidation,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.New("connection refused"))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("wrapped error lost its kind: %v", err)
	}
}
