package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("notice.invalid_move", nil)
	if err != nil || got != "Invalid move!" {
		t.Fatalf("invalid_move = %q, %v", got, err)
	}
	got, err = c.Render("notice.eval_unavailable", nil)
	if err != nil || got != "Unable to evaluate move" {
		t.Fatalf("eval_unavailable = %q, %v", got, err)
	}
	got, err = c.Render("notice.new_game", map[string]any{"Side": "white"})
	if err != nil || got != "New game started. You play white." {
		t.Fatalf("new_game = %q, %v", got, err)
	}
}

func TestRender_MissingKeyAndData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("notice.nope", nil); err == nil {
		t.Fatalf("expected template not found")
	}
	if _, err := c.Render("notice.new_game", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.Text("notice.new_game", "fallback", nil); got != "fallback" {
		t.Fatalf("Text fallback = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.Text("notice.invalid_move", "Invalid move!", nil); got != "Invalid move!" {
		t.Fatalf("nil catalog Text = %q", got)
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "notice:\n  invalid_move: \"Illegal!\"\n")
	write("ignored.txt", "notice:\n  invalid_move: \"nope\"\n")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("notice.invalid_move", nil); got != "Illegal!" {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("notice.eval_unavailable", nil); got != "Unable to evaluate move" {
		t.Fatalf("default lost: %q", got)
	}

	write("b.yml", "notice:\n  invalid_move: \"Twice\"\n")
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestOverrides_RejectNonString(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("notice:\n  count: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for non-string leaf")
	}
}

func TestKeysSorted(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	keys := c.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
	if len(keys) == 0 {
		t.Fatalf("no keys loaded")
	}
}
