package remote

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusErrorMatching(t *testing.T) {
	notFound := fmt.Errorf("update: %w", &StatusError{Op: "PUT /financial-records/1", Code: 404})
	assert.ErrorIs(t, notFound, ErrStatus)
	assert.ErrorIs(t, notFound, ErrNotFound)

	serverErr := &StatusError{Op: "GET", Code: 500, Body: "boom"}
	assert.ErrorIs(t, serverErr, ErrStatus)
	assert.False(t, errors.Is(serverErr, ErrNotFound))
	assert.Equal(t, "GET: status 500: boom", serverErr.Error())

	var se *StatusError
	assert.True(t, errors.As(notFound, &se))
	assert.Equal(t, 404, se.Code)
}

func TestReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotFound, "not_found"},
		{&StatusError{Code: 502}, "status"},
		{fmt.Errorf("decode: %w", ErrMalformed), "malformed"},
		{fmt.Errorf("%w: dial tcp", ErrTransport), "transport"},
		{errors.New("other"), "internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Reason(tc.err), "%v", tc.err)
	}
}
