package yanaq_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yanadb/yanaq"
	"github.com/yanadb/yanaq/pkg/query"
)

func TestErrorHelpers(t *testing.T) {
	t.Run("IsInvalidSchemaErr", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", yanaq.ErrInvalidSchema)
		if !yanaq.IsInvalidSchemaErr(err) {
			t.Error("IsInvalidSchemaErr should return true for wrapped ErrInvalidSchema")
		}
		if yanaq.IsInvalidSchemaErr(errors.New("other error")) {
			t.Error("IsInvalidSchemaErr should return false for other errors")
		}
	})

	t.Run("IsNotFoundErr", func(t *testing.T) {
		for _, sentinel := range []error{query.ErrTableNotFound, query.ErrColumnNotFound, query.ErrTargetNotFound} {
			if !yanaq.IsNotFoundErr(fmt.Errorf("wrapped: %w", sentinel)) {
				t.Errorf("IsNotFoundErr should return true for wrapped %v", sentinel)
			}
		}
		if yanaq.IsNotFoundErr(query.ErrTableNotSet) {
			t.Error("IsNotFoundErr should return false for ErrTableNotSet")
		}
	})

	t.Run("IsInsufficientRightsErr", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", query.ErrInsufficientRights)
		if !yanaq.IsInsufficientRightsErr(err) {
			t.Error("IsInsufficientRightsErr should return true for wrapped ErrInsufficientRights")
		}
		if yanaq.IsInsufficientRightsErr(errors.New("other error")) {
			t.Error("IsInsufficientRightsErr should return false for other errors")
		}
	})
}
