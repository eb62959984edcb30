package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListFormatsSounds(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"boing.mp3", "air-horn.wav", "sad-trombone.OGG", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sounds, err := New(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []Sound{
		{ID: "air-horn", Name: "Air Horn", URL: "/sounds/air-horn.wav"},
		{ID: "boing", Name: "Boing", URL: "/sounds/boing.mp3"},
		{ID: "sad-trombone", Name: "Sad Trombone", URL: "/sounds/sad-trombone.OGG"},
	}

	if len(sounds) != len(want) {
		t.Fatalf("expected %d sounds, got %+v", len(want), sounds)
	}
	for i, w := range want {
		if sounds[i] != w {
			t.Errorf("sound %d: got %+v, want %+v", i, sounds[i], w)
		}
	}
}

func TestListCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sounds")

	sounds, err := New(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sounds) != 0 {
		t.Fatalf("expected empty catalog, got %+v", sounds)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory was not created: %v", err)
	}
}
