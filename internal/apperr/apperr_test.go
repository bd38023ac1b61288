package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromStoreTranslatesGormErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"record not found", gorm.ErrRecordNotFound, KindNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), KindNotFound, http.StatusNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, KindDomain, http.StatusConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, KindDomain, http.StatusConflict},
		{"anything else", errors.New("connection reset"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := As(FromStore(tt.err, "listing"))
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.Status())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromStoreKeepsAppErrors(t *testing.T) {
	original := Validation("title is required")
	assert.Same(t, original, FromStore(original, "listing"))
	assert.Nil(t, FromStore(nil, "listing"))
}

func TestInternalMessageHidesCause(t *testing.T) {
	err := As(FromStore(errors.New("pq: password authentication failed"), "user"))
	assert.Equal(t, "failed to access user", err.Message)
	assert.True(t, Is(err, KindInternal))
}
