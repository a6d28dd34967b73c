package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		login  bool
		want   Kind
	}{
		{name: "401 on login", status: 401, login: true, want: KindInvalidCredentials},
		{name: "401 elsewhere", status: 401, login: false, want: KindUnauthorized},
		{name: "403 on login", status: 403, login: true, want: KindInvalidCredentials},
		{name: "404", status: 404, want: KindNotFound},
		{name: "409", status: 409, want: KindConflict},
		{name: "500", status: 500, want: KindServer},
		{name: "503", status: 503, want: KindServer},
		{name: "418", status: 418, want: KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStatus(tt.status, tt.login))
		})
	}
}

func TestErrorMessagesAreDistinct(t *testing.T) {
	kinds := []Kind{
		KindUnavailable,
		KindUnauthorized,
		KindInvalidCredentials,
		KindConflict,
		KindNotFound,
		KindServer,
		KindGeneric,
	}

	seen := make(map[string]Kind)
	for _, kind := range kinds {
		msg := (&Error{Kind: kind}).Message()
		assert.NotEmpty(t, msg)
		if prev, dup := seen[msg]; dup {
			t.Errorf("kinds %s and %s share the message %q", prev, kind, msg)
		}
		seen[msg] = kind
	}
}

func TestKindOf_NonAPIError(t *testing.T) {
	assert.Equal(t, KindGeneric, KindOf(errors.New("plain")))
	assert.False(t, IsUnavailable(errors.New("plain")))
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := newError(KindServer, 500, inner)
	assert.ErrorIs(t, err, inner)
}
