package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendPostsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier, err := New(srv.URL, "secret-token", 5*time.Second)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), "+5511999990001", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/messages" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotBody["to"] != "+5511999990001" || gotBody["message"] != "hello" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
}

func TestSendRejectsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier, err := New(srv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), "+5511999990001", "hello"); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestSendValidatesInput(t *testing.T) {
	notifier, err := New("http://localhost:9", "", time.Second)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if err := notifier.Send(context.Background(), "+5511999990001", " "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("  ", "", time.Second); err == nil {
		t.Fatal("expected error for empty api url")
	}
}
