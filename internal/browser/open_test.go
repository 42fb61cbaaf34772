package browser

import (
	"errors"
	"runtime"
	"testing"
)

func TestOpenRejectsNonHTTP(t *testing.T) {
	called := false
	startCommand = func(string, ...string) error { called = true; return nil }
	t.Cleanup(func() { startCommand = defaultStart })

	for _, raw := range []string{
		"",
		"javascript:alert(1)",
		"file:///etc/passwd",
		"data:image/png;base64,AAAA",
		"https://",
		"example.com/cat.png",
	} {
		if err := Open(raw); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("Open(%q) = %v, want ErrUnsupportedURL", raw, err)
		}
	}
	if called {
		t.Error("no command should start for rejected links")
	}
}

func TestOpenStartsOpener(t *testing.T) {
	if _, _, err := opener(runtime.GOOS); err != nil {
		t.Skipf("no opener on %s", runtime.GOOS)
	}
	var gotName string
	var gotArgs []string
	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}
	t.Cleanup(func() { startCommand = defaultStart })

	if err := Open("https://example.com/cat.png"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotName == "" {
		t.Fatal("opener not started")
	}
	if last := gotArgs[len(gotArgs)-1]; last != "https://example.com/cat.png" {
		t.Errorf("last arg = %q", last)
	}
}

func TestOpener(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs int
		wantErr  bool
	}{
		{"darwin", "open", 0, false},
		{"linux", "xdg-open", 0, false},
		{"windows", "rundll32", 1, false},
		{"plan9", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := opener(tt.goos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName || len(args) != tt.wantArgs {
				t.Errorf("opener(%q) = %q %v", tt.goos, name, args)
			}
		})
	}
}

var defaultStart = startCommand
