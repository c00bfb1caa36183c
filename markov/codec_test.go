package markov

import "testing"

func TestEncodeDecodeField(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"hello", "hello"},
		{"", ""},
		{"$money", "\x00$money"},
		{"$", "\x00$"},
		{"mid$dle", "mid$dle"},
		{"$$double", "\x00$$double"},
	}
	for _, tt := range tests {
		got := EncodeField(tt.token)
		if got != tt.want {
			t.Errorf("EncodeField(%q) = %q, want %q", tt.token, got, tt.want)
		}
		back := DecodeField(got)
		if back != tt.token {
			t.Errorf("DecodeField(EncodeField(%q)) = %q, want identity", tt.token, back)
		}
	}
}

func TestDecodeFieldPassthrough(t *testing.T) {
	// Decoding a field that was never escaped is the identity.
	for _, s := range []string{"plain", "", "$raw", "\x00alone"} {
		if got := DecodeField(s); got != s {
			t.Errorf("DecodeField(%q) = %q, want %q", s, got, s)
		}
	}
}
