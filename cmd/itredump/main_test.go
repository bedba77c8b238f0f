package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Zereker/itre"
	"github.com/Zereker/itre/frame"
)

func TestView_Compound(t *testing.T) {
	message := itre.Compound{
		itre.Text("hi"),
		itre.Compound{itre.Emo(itre.EmoCry)},
		itre.Nop{},
	}

	v := view(message)

	if v.Type != "compound" {
		t.Errorf("type = %q, want compound", v.Type)
	}
	if len(v.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(v.Items))
	}
	if v.Items[0].Text != "hi" {
		t.Errorf("items[0].text = %q, want hi", v.Items[0].Text)
	}
	if v.Items[1].Items[0].Emo != "cry" {
		t.Errorf("nested emo = %q, want cry", v.Items[1].Items[0].Emo)
	}
	if v.Items[2].Type != "nop" {
		t.Errorf("items[2].type = %q, want nop", v.Items[2].Type)
	}
}

func TestDumpRaw(t *testing.T) {
	views, err := dumpRaw([]byte{0x82, 0x00, 0x82, 0x01})
	if err != nil {
		t.Fatalf("dumpRaw failed: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("decoded %d messages, want 2", len(views))
	}
	if views[0].Emo != "nop" || views[1].Emo != "laugh" {
		t.Errorf("emos = %q, %q", views[0].Emo, views[1].Emo)
	}
}

func TestDumpRaw_Empty(t *testing.T) {
	views, err := dumpRaw(nil)
	if err != nil {
		t.Fatalf("dumpRaw failed: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("decoded %d messages, want 0", len(views))
	}
}

func TestDumpRaw_Error(t *testing.T) {
	_, err := dumpRaw([]byte{0x82, 0x00, 0xff})

	var typeErr *itre.InvalidTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("err = %v, want InvalidTypeError", err)
	}
}

func TestDumpFramed(t *testing.T) {
	var stream bytes.Buffer
	for _, payload := range [][]byte{{0x82, 0x02}, {0xfc}} {
		if err := frame.Write(&stream, payload, frame.DefaultLimits()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	views, err := dumpFramed(stream.Bytes())
	if err != nil {
		t.Fatalf("dumpFramed failed: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("decoded %d frames, want 2", len(views))
	}
	if views[0].Emo != "cry" {
		t.Errorf("emo = %q, want cry", views[0].Emo)
	}
	if views[1].Type != "nop" {
		t.Errorf("type = %q, want nop", views[1].Type)
	}
}

func TestDumpFramed_ShortHeader(t *testing.T) {
	_, err := dumpFramed([]byte{0x00, 0x00})
	if !errors.Is(err, frame.ErrShortHeader) {
		t.Errorf("err = %v, want ErrShortHeader", err)
	}
}

func TestDecodeHex(t *testing.T) {
	data, err := decodeHex([]byte("82 01\n\tfc\r\n"))
	if err != nil {
		t.Fatalf("decodeHex failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x82, 0x01, 0xfc}) {
		t.Errorf("data = %x, want 8201fc", data)
	}
}

func TestDecodeHex_Invalid(t *testing.T) {
	_, err := decodeHex([]byte("zz"))
	if err == nil {
		t.Error("expected error for invalid hex")
	}
}
