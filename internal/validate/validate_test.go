package validate

import "testing"

func TestPuzzleName(t *testing.T) {
	if err := PuzzleName("Mount Fuji"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := PuzzleName("富士山の風景"); err != nil {
		t.Errorf("unicode name rejected: %v", err)
	}
	for _, name := range []string{"", "   ", "\t\n"} {
		if err := PuzzleName(name); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

func TestPieceCount(t *testing.T) {
	for _, n := range []int{100, 300, 500, 1000, 2000} {
		if err := PieceCount(n); err != nil {
			t.Errorf("count %d rejected: %v", n, err)
		}
	}
	for _, n := range []int{0, -1, 99, 150, 999, 5000} {
		if err := PieceCount(n); err == nil {
			t.Errorf("count %d should be rejected", n)
		}
	}
}

func TestImageFile(t *testing.T) {
	valid := []string{"fuji.jpg", "fuji.JPG", "a.jpeg", "b.png", "c.gif", "d.webp", "e.bmp", "/some/dir/f.Png"}
	for _, name := range valid {
		if err := ImageFile(name); err != nil {
			t.Errorf("%q rejected: %v", name, err)
		}
	}
	invalid := []string{"notes.txt", "archive.zip", "noext", "fuji.jpg.exe", ""}
	for _, name := range invalid {
		if err := ImageFile(name); err == nil {
			t.Errorf("%q should be rejected", name)
		}
	}
}

func TestPassword(t *testing.T) {
	if err := Password("Passw0rd"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}

	cases := []struct {
		pw     string
		reason string
	}{
		{"Sh0rt", "too short"},
		{"alllowercase1", "no upper-case"},
		{"ALLUPPERCASE1", "no lower-case"},
		{"NoDigitsHere", "no digit"},
	}
	for _, tc := range cases {
		if err := Password(tc.pw); err == nil {
			t.Errorf("%q should be rejected (%s)", tc.pw, tc.reason)
		}
	}
}

func TestEmail(t *testing.T) {
	if err := Email("user@example.com"); err != nil {
		t.Errorf("valid address rejected: %v", err)
	}
	for _, addr := range []string{"", "no-at-sign", "   "} {
		if err := Email(addr); err == nil {
			t.Errorf("%q should be rejected", addr)
		}
	}
}
