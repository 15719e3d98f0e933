// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestServerTCP(t *testing.T) {
	ctx := context.Background()

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	id, err := s.StartTCP(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("listener port must be updated")
	}

	s.AddHandler("/hello", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "world")
	}))

	resp, err := http.Get("http://" + addr.String() + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(data) != "world" {
		t.Fatalf("want world, got %q", data)
	}

	if !s.RemoveHandler("/hello") {
		t.Fatalf("handler must be removed")
	}
	if s.RemoveHandler("/hello") {
		t.Fatalf("second remove must report false")
	}

	resp, err = http.Get("http://" + addr.String() + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want not-found status, got %d", resp.StatusCode)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestServerUnix(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.UnixAddr{Name: filepath.Join(t.TempDir(), "http.sock"), Net: "unix"}
	if _, err := s.StartUnix(context.Background(), addr); err != nil {
		t.Fatal(err)
	}
}
