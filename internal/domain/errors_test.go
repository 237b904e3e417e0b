package domain

import (
	"errors"
	"fmt"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient sentinel", ErrTransient, true},
		{"wrapped transient", fmt.Errorf("fetch: %w", ErrTransient), true},
		{"rate limited", ErrRateLimited, true},
		{"network timeout", timeoutErr{}, true},
		{"unauthorized", ErrUnauthorized, false},
		{"bad data", ErrBadData, false},
		{"not found", ErrNotFound, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
