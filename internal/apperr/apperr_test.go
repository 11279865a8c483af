package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		detail  string
		kind    Kind
		message string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, detail: "Invalid credentials", kind: KindAuthorization, message: "Invalid credentials"},
		{name: "forbidden", status: http.StatusForbidden, detail: "", kind: KindAuthorization, message: "Forbidden"},
		{name: "bad request", status: http.StatusBadRequest, detail: "Bericht mag niet leeg zijn", kind: KindTransport, message: "Bericht mag niet leeg zijn"},
		{name: "server error without detail", status: http.StatusBadGateway, kind: KindTransport, message: "Bad Gateway"},
		{name: "unknown status", status: 599, kind: KindTransport, message: "unexpected status 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := FromStatus(tt.status, tt.detail)
			if err.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, err.Kind)
			}
			if err.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, err.Message)
			}
			if err.Status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, err.Status)
			}
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := Authorization(http.StatusUnauthorized, "token expired")
	wrapped := fmt.Errorf("send message: %w", base)

	if !IsAuthorization(wrapped) {
		t.Fatalf("expected wrapped error to be an authorization error")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty kind for plain errors")
	}
	if UserMessage(wrapped) != "token expired" {
		t.Fatalf("unexpected user message: %q", UserMessage(wrapped))
	}
	if UserMessage(errors.New("plain")) != "plain" {
		t.Fatalf("expected plain error text as user message")
	}
}

func TestNewCapturesStackAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport(0, "request failed", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
	if len(err.StackTrace()) == 0 {
		t.Fatalf("expected a captured stack trace")
	}
	if err.Error() != "TRANSPORT: request failed: connection refused" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}
