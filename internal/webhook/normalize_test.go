package webhook

import (
	"reflect"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"whatsapp jid", "5511999990000@s.whatsapp.net", "+5511999990000"},
		{"already e164", "+5511999990000", "+5511999990000"},
		{"digits with country code", "5511999990000", "+5511999990000"},
		{"formatted number", "(11) 99999-0000", "+11999990000"},
		{"group jid", "5511999990000-1612345678@g.us", "+55119999900001612345678"},
		{"empty", "", ""},
		{"no digits", "@s.whatsapp.net", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.raw); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPhoneCandidates(t *testing.T) {
	got := PhoneCandidates("+5511999990000")
	want := []string{"+5511999990000", "5511999990000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PhoneCandidates = %v, want %v", got, want)
	}

	if got := PhoneCandidates(""); got != nil {
		t.Errorf("PhoneCandidates(\"\") = %v, want nil", got)
	}
}
