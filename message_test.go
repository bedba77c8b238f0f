package itre

import "testing"

func TestType_String(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{TypeText, "text"},
		{TypeEmo, "emo"},
		{TypeImage, "image"},
		{TypeCompound, "compound"},
		{TypeNop, "nop"},
		{Type(0x13), "invalid(0x13)"},
	}

	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("Type(0x%02x).String() = %q, want %q", byte(c.typ), got, c.want)
		}
	}
}

func TestEmo_String(t *testing.T) {
	cases := []struct {
		emo  Emo
		want string
	}{
		{EmoNop, "nop"},
		{EmoLaugh, "laugh"},
		{EmoCry, "cry"},
		{Emo(0x42), "invalid(0x42)"},
	}

	for _, c := range cases {
		if got := c.emo.String(); got != c.want {
			t.Errorf("Emo(0x%02x).String() = %q, want %q", byte(c.emo), got, c.want)
		}
	}
}

func TestMessage_Type(t *testing.T) {
	cases := []struct {
		msg  Message
		want Type
	}{
		{Nop{}, TypeNop},
		{Text("hello"), TypeText},
		{EmoCry, TypeEmo},
		{Image{}, TypeImage},
		{Compound{Nop{}}, TypeCompound},
	}

	for _, c := range cases {
		if got := c.msg.Type(); got != c.want {
			t.Errorf("%#v.Type() = %v, want %v", c.msg, got, c.want)
		}
	}
}
