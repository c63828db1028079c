package mpc

import (
	"errors"
	"testing"
)

func TestSafeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"test.bin", "test.bin", true},
		{"gfx\\title.pcx", "gfx/title.pcx", true},
		{"./a//b/./c.txt", "a/b/c.txt", true},
		{"dir/", "dir", true},
		{"..data", "..data", true},
		{"", "", false},
		{"..", "", false},
		{"../evil", "", false},
		{"a/../../evil", "", false},
		{"a\\..\\b", "", false},
		{"/etc/passwd", "", false},
		{"\\windows\\system.ini", "", false},
		{"C:\\autoexec.bat", "", false},
		{"c:evil", "", false},
		{".", "", false},
		{"././", "", false},
		{"bad\nname", "", false},
		{"bell\x07", "", false},
	}

	for _, tc := range tests {
		got, err := SafeName(tc.input)
		if tc.ok {
			if err != nil {
				t.Errorf("SafeName(%q): unexpected error %v", tc.input, err)
				continue
			}
			if got != tc.want {
				t.Errorf("SafeName(%q): got %q want %q", tc.input, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrUnsafeName) {
			t.Errorf("SafeName(%q): expected ErrUnsafeName, got %q, %v", tc.input, got, err)
		}
	}
}
