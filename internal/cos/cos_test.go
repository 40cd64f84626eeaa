package cos

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"1KB", KB},
		{"2MB", 2 * MB},
		{"1GB", GB},
		{"10B", 10},
		{" 3KB ", 3 * KB},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseSizeRejectsGarbage(t *testing.T) {
	if _, err := ParseSize(""); err == nil {
		t.Fatal("ParseSize(\"\") should return an error")
	}
	if _, err := ParseSize("not-a-size"); err == nil {
		t.Fatal("ParseSize of a non-numeric string should return an error")
	}
}

func TestRoundUp(t *testing.T) {
	cases := []struct{ n, align, want int64 }{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{100, 1, 100},
	}
	for _, c := range cases {
		if got := RoundUp(c.n, c.align); got != c.want {
			t.Errorf("RoundUp(%d,%d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}
