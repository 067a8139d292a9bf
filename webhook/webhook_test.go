package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSend_SignsPayload(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Harvest-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "s3cret")
	ev := NewEvent(EventCompleted, "harvest-abc", map[string]int{"pages_scraped": 7})
	if err := n.Send(context.Background(), ev); err != nil {
		t.Fatalf("send: %v", err)
	}

	if !strings.HasPrefix(gotSig, "sha256=") {
		t.Fatalf("signature header = %q", gotSig)
	}
	want := "sha256=" + Sign("s3cret", gotBody)
	if !hmac.Equal([]byte(gotSig), []byte(want)) {
		t.Errorf("signature mismatch: got %s want %s", gotSig, want)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if decoded.Type != EventCompleted || decoded.JobID != "harvest-abc" {
		t.Errorf("payload = %+v", decoded)
	}
}

func TestSend_UnsignedWithoutSecret(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["X-Harvest-Signature"]
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	if err := n.Send(context.Background(), NewEvent(EventPage, "j", nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sawHeader {
		t.Error("unsigned delivery carried a signature header")
	}
}

func TestSend_EndpointErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	if err := n.Send(context.Background(), NewEvent(EventFailed, "j", nil)); err == nil {
		t.Error("502 from the endpoint should be an error")
	}
}

func TestNotifier_DisabledWithoutURL(t *testing.T) {
	n := NewNotifier("", "secret")
	if n.Enabled() {
		t.Error("notifier without URL reports enabled")
	}
	// Must be a silent no-op, not a panic or network attempt.
	if err := n.Send(context.Background(), NewEvent(EventPage, "j", nil)); err != nil {
		t.Errorf("disabled send returned %v", err)
	}
	n.SendAsync(NewEvent(EventPage, "j", nil))

	var nilNotifier *Notifier
	if nilNotifier.Enabled() {
		t.Error("nil notifier reports enabled")
	}
}

func TestSign_Deterministic(t *testing.T) {
	body := []byte(`{"type":"harvest.completed"}`)
	if Sign("k", body) != Sign("k", body) {
		t.Error("same inputs produced different signatures")
	}
	if Sign("k", body) == Sign("other", body) {
		t.Error("different secrets produced the same signature")
	}
}
