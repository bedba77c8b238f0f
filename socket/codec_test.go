package socket

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Zereker/itre"
	"github.com/Zereker/itre/frame"
)

func TestCodec_Roundtrip(t *testing.T) {
	codec := NewCodec(frame.DefaultLimits(), false)

	payload := []byte{0x82, 0x01}
	framed, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	envelope, err := codec.Decode(bytes.NewReader(framed))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if envelope.Message != itre.Emo(itre.EmoLaugh) {
		t.Errorf("message = %#v, want EmoLaugh", envelope.Message)
	}
	if !bytes.Equal(envelope.Payload, payload) {
		t.Errorf("payload = %x, want %x", envelope.Payload, payload)
	}
}

func TestCodec_RoundtripCompressed(t *testing.T) {
	codec := NewCodec(frame.DefaultLimits(), true)

	text := strings.Repeat("a", 2048)
	payload := append([]byte{0x80, 0x08, 0x00}, text...)

	framed, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(framed) >= len(payload) {
		t.Errorf("framed size = %d, want smaller than payload %d", len(framed), len(payload))
	}

	envelope, err := codec.Decode(bytes.NewReader(framed))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if envelope.Message != itre.Text(text) {
		t.Error("decoded message differs from original text")
	}
}

func TestCodec_DecodeFrameError(t *testing.T) {
	codec := NewCodec(frame.DefaultLimits(), false)

	// Frame errors pass through unwrapped so callers can match them.
	_, err := codec.Decode(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestCodec_DecodeInvalidMessage(t *testing.T) {
	codec := NewCodec(frame.DefaultLimits(), false)

	framed, err := codec.Encode([]byte{0xff})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, err = codec.Decode(bytes.NewReader(framed))

	var typeErr *itre.InvalidTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("err = %v, want InvalidTypeError", err)
	}
	if typeErr.Code != 0xff {
		t.Errorf("code = 0x%02x, want 0xff", typeErr.Code)
	}
}

func TestCodec_DecodeTrailingBytes(t *testing.T) {
	codec := NewCodec(frame.DefaultLimits(), false)

	framed, err := codec.Encode([]byte{0xfc, 0x00})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, err = codec.Decode(bytes.NewReader(framed))
	if !errors.Is(err, itre.ErrTrailingBytes) {
		t.Errorf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestCodec_EncodeTooLarge(t *testing.T) {
	codec := NewCodec(frame.Limits{MaxPayload: 8}, false)

	_, err := codec.Encode(make([]byte, 16))
	if !errors.Is(err, frame.ErrPayloadTooLarge) {
		t.Errorf("err = %v, want ErrPayloadTooLarge", err)
	}
}
