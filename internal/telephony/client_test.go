package telephony

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateCall(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotURL string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotURL = r.PostFormValue("Url")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA42","to":"+8801712345678","from":"+12025550100","status":"queued"}`))
	}))
	defer srv.Close()

	client := New(Config{
		ProjectID: "proj-1",
		APIToken:  "token-1",
		SpaceURL:  srv.URL,
		CallerID:  "+12025550100",
		Timeout:   5 * time.Second,
	}, slog.New(slog.DiscardHandler), nil)

	session, err := client.CreateCall(context.Background(), "+8801712345678", "https://example.test/voice/1/entry")
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if session.SID != "CA42" {
		t.Fatalf("sid = %q", session.SID)
	}
	if gotPath != "/api/laml/2010-04-01/Accounts/proj-1/Calls.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUser != "proj-1" || gotPass != "token-1" {
		t.Fatalf("basic auth = %q/%q", gotUser, gotPass)
	}
	if gotTo != "+8801712345678" || gotFrom != "+12025550100" || gotURL != "https://example.test/voice/1/entry" {
		t.Fatalf("form = to %q, from %q, url %q", gotTo, gotFrom, gotURL)
	}
}

func TestCreateCallProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	client := New(Config{
		ProjectID: "proj-1",
		APIToken:  "wrong",
		SpaceURL:  srv.URL,
		CallerID:  "+12025550100",
		Timeout:   5 * time.Second,
	}, slog.New(slog.DiscardHandler), nil)

	if _, err := client.CreateCall(context.Background(), "+8801712345678", "https://example.test/cb"); err == nil {
		t.Fatal("expected error for rejected call")
	}
}
