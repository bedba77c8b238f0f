// Package frame reads and writes the length-delimited envelopes that
// carry ITRE message bytes over a stream. A frame is a 5-byte header,
// payload length (u32, big-endian) followed by one flags byte, and
// then the payload. Framing is what guarantees the message decoder
// downstream always sees a complete buffer.
package frame

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/pkg/errors"
)

// HeaderLen is the fixed envelope header size: four length bytes and
// one flags byte.
const HeaderLen = 5

// flagCompressed marks an s2-compressed payload.
const flagCompressed byte = 1 << 0

// compressMin is the smallest payload WriteCompressed will try to
// compress; below it the block overhead usually exceeds the gain.
const compressMin = 512

// Errors returned by frame operations.
var (
	// ErrShortHeader is returned when the stream ends inside a frame
	// header. A stream that ends cleanly between frames yields io.EOF.
	ErrShortHeader = errors.New("frame: short header")

	// ErrShortPayload is returned when the stream ends inside a frame
	// payload.
	ErrShortPayload = errors.New("frame: short payload")

	// ErrUnknownFlags is returned when a header carries flag bits this
	// implementation does not know.
	ErrUnknownFlags = errors.New("frame: unknown flags")

	// ErrPayloadTooLarge is returned when a payload exceeds the
	// configured limit, on either its wire size or its decompressed
	// size.
	ErrPayloadTooLarge = errors.New("frame: payload too large")

	// ErrCorruptPayload is returned when a compressed payload does not
	// decompress.
	ErrCorruptPayload = errors.New("frame: corrupt compressed payload")
)

// Limits bounds the memory one frame may claim.
type Limits struct {
	// MaxPayload caps the payload size in bytes, both as stored on the
	// wire and after decompression.
	MaxPayload int
}

// DefaultLimits matches the transport's default maximum message size.
func DefaultLimits() Limits {
	return Limits{MaxPayload: 1024 * 1024}
}

// Read reads one frame from r and returns its payload, decompressed
// when the compression flag is set. A clean end of stream before the
// first header byte is reported as io.EOF; an end of stream anywhere
// later is a short-frame error. Limit checks run before the payload
// is read or decompressed, so a hostile header cannot force a large
// allocation.
func Read(r io.Reader, limits Limits) ([]byte, error) {
	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:4])
	flags := header[4]
	if flags&^flagCompressed != 0 {
		return nil, errors.Wrapf(ErrUnknownFlags, "0x%02x", flags)
	}
	if int64(length) > int64(limits.MaxPayload) {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPayload
		}
		return nil, err
	}

	if flags&flagCompressed == 0 {
		return payload, nil
	}
	return decompress(payload, limits)
}

func decompress(payload []byte, limits Limits) ([]byte, error) {
	n, err := s2.DecodedLen(payload)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptPayload, "%v", err)
	}
	if n > limits.MaxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes decompressed", n)
	}
	out, err := s2.Decode(nil, payload)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptPayload, "%v", err)
	}
	return out, nil
}

// Write frames payload onto w without compression.
func Write(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) > limits.MaxPayload {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes", len(payload))
	}
	return write(w, payload, 0)
}

// WriteCompressed frames payload onto w, s2-compressing it when it is
// at least compressMin bytes and compression actually shrinks it.
// Small or incompressible payloads fall back to a raw frame, so the
// peer never pays decompression cost for nothing.
func WriteCompressed(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) > limits.MaxPayload {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes", len(payload))
	}
	if len(payload) < compressMin {
		return write(w, payload, 0)
	}
	if packed := s2.Encode(nil, payload); len(packed) < len(payload) {
		return write(w, packed, flagCompressed)
	}
	return write(w, payload, 0)
}

// write emits one frame; the payload is already in its wire form.
func write(w io.Writer, payload []byte, flags byte) error {
	header := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	header[4] = flags
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}
