package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), "timeout"},
		{"flood", tele.FloodError{RetryAfter: 2}, "flood"},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{"dial behind url", &url.Error{Op: "Post", URL: "u", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, "dial"},
		{"api 400", &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, "http_4xx"},
		{"rendered 502", errors.New("telegram: Bad Gateway (502)"), "http_5xx"},
		{"plain", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.err); got != tc.want {
				t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(tele.FloodError{RetryAfter: 1}); got != 429 {
		t.Fatalf("flood status = %d", got)
	}
	if got := HTTPStatus(errors.New("no code here")); got != 0 {
		t.Fatalf("status = %d, want 0", got)
	}
}
