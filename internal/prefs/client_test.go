package prefs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prefs/u1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"user_id":"u1","neurotype":"autism","features":{"style_adjust":false}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	p, err := c.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Neurotype != "autism" {
		t.Errorf("neurotype = %q", p.Neurotype)
	}
	if p.Enabled(FeatureStyleAdjust) {
		t.Error("style_adjust should be disabled")
	}
	if !p.Enabled(FeatureTextSimplify) {
		t.Error("unset flags default to enabled")
	}
}

func TestClientGetNotFoundDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	p, err := c.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.UserID != "ghost" || p.Neurotype != "adhd" || p.Features != nil {
		t.Errorf("defaults = %+v", p)
	}
}

func TestClientGetServerErrorStillUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	p, err := c.Get(context.Background(), "u2")
	if err == nil {
		t.Error("expected an error for 500")
	}
	// Returned preferences remain usable so the cycle can proceed.
	if p.Neurotype == "" {
		t.Error("error path must still return usable defaults")
	}
}
