package service

import "testing"

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"whitespace runs collapsed", "Hello   world\n\nfoo", 3},
		{"empty string", "", 0},
		{"only whitespace", "  \n\t ", 0},
		{"single word", "hello", 1},
		{"leading and trailing space", "  one two  ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countWords(tt.text); got != tt.want {
				t.Errorf("countWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	valid := "hello мир"
	if got := sanitizeUTF8(valid); got != valid {
		t.Errorf("sanitizeUTF8 changed valid string: %q", got)
	}

	invalid := "ab\xffcd"
	if got := sanitizeUTF8(invalid); got != "abcd" {
		t.Errorf("sanitizeUTF8(%q) = %q, want %q", invalid, got, "abcd")
	}
}

func TestMimeTypeForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".pdf", "application/pdf"},
		{".PNG", "image/png"},
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := mimeTypeForExt(tt.ext); got != tt.want {
			t.Errorf("mimeTypeForExt(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}
