package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{validationError("bad input"), ErrValidation},
		{notFoundError("missing"), ErrNotFound},
		{authorizationError("not yours"), ErrAuthorization},
		{stateError("wrong phase"), ErrState},
		{fmt.Errorf("wrapped: %w", stateError("wrong phase")), ErrState},
		{errors.New("plain"), ErrInternal},
		{nil, ""},
	}

	for _, c := range cases {
		if got := errorKind(c.err); got != c.want {
			t.Fatalf("errorKind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
