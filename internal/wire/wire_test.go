package wire

import "testing"

func TestCRC32C(t *testing.T) {
	if got := CRC32C(nil); got != 0x00000000 {
		t.Errorf("CRC32C(empty) = %#x, want 0x00000000", got)
	}
	if got := CRC32C([]byte("123456789")); got != 0xE3069283 {
		t.Errorf("CRC32C(123456789) = %#x, want 0xe3069283", got)
	}
}

func TestStaticIP(t *testing.T) {
	cases := []struct {
		net, team, host uint16
		want            string
	}{
		{10, 3794, 2, "10.37.94.2"},
		{10, 18, 1, "10.0.18.1"},
	}
	for _, c := range cases {
		if got := StaticIP(c.net, c.team, c.host); got != c.want {
			t.Errorf("StaticIP(%d,%d,%d) = %q, want %q", c.net, c.team, c.host, got, c.want)
		}
	}
}

func TestPackButtonsSquared(t *testing.T) {
	pressed := make([]bool, 10)
	pressed[2] = true
	pressed[3] = true
	if got := PackButtonsSquared(pressed); got != 0x000D {
		t.Errorf("PackButtonsSquared = %#x, want 0xd", got)
	}
}

func TestPackButtonsMasked(t *testing.T) {
	pressed := make([]bool, 10)
	pressed[2] = true
	pressed[3] = true
	if got := PackButtonsMasked(pressed); got != 0x000C {
		t.Errorf("PackButtonsMasked = %#x, want 0xc", got)
	}
}

func TestFloatToByte(t *testing.T) {
	if got := FloatToByte(1.0, 1.0); got != 127 {
		t.Errorf("FloatToByte(1.0,1.0) = %d, want 127", got)
	}
	if got := FloatToByte(-1.0, 1.0); got != -127 {
		t.Errorf("FloatToByte(-1.0,1.0) = %d, want -127", got)
	}
	if got := FloatToByte(0, 1.0); got != 0 {
		t.Errorf("FloatToByte(0,1.0) = %d, want 0", got)
	}
}

func TestTimezoneName(t *testing.T) {
	if got := TimezoneName(0); got != "GMT0BST" {
		t.Errorf("TimezoneName(0) = %q, want GMT0BST", got)
	}
	if got := TimezoneName(99); got != "UTC" {
		t.Errorf("TimezoneName(99) = %q, want UTC", got)
	}
}
