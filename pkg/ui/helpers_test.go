package ui

import "testing"

func TestTruncateRunesHelper(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello w…"},
		{"日本語テキスト", 5, "日本…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateRunesHelper(tt.in, tt.max, "…"); got != tt.want {
			t.Errorf("truncateRunesHelper(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestSingleCellGlyph(t *testing.T) {
	if got := singleCellGlyph("x", "o"); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
	if got := singleCellGlyph("日", "o"); got != "o" {
		t.Errorf("wide glyph should fall back, got %q", got)
	}
	if got := singleCellGlyph("", "o"); got != "o" {
		t.Errorf("empty glyph should fall back, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight should not truncate, got %q", got)
	}
}

func TestDefaultTheme(t *testing.T) {
	theme := TestTheme()
	if theme.Renderer == nil {
		t.Error("DefaultTheme renderer missing")
	}
	if theme.Primary.Light == "" || theme.Primary.Dark == "" {
		t.Error("DefaultTheme Primary color is empty")
	}
}

func TestKeyMapHelp(t *testing.T) {
	k := DefaultKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Error("short help empty")
	}
	n := 0
	for _, group := range k.FullHelp() {
		n += len(group)
	}
	if n != 17 {
		t.Errorf("expected every binding in full help, got %d", n)
	}
}
