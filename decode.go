package itre

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Decoder is a forward-only cursor over a fully received message
// buffer. Every decode step advances the cursor by exactly the bytes
// it consumed and never reads past the end of the buffer: short
// buffers are reported as ErrTruncated, not read out of bounds.
//
// The buffer must already contain every byte of the messages to
// decode; the Decoder performs no buffering or retry on short data.
// A Decoder must not be shared between goroutines. After a failed
// decode the cursor position is unspecified and the Decoder must not
// be reused.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder reading from data. The Decoder borrows
// data for the duration of the decode calls; the caller must not
// mutate it in between.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Decode decodes exactly one message occupying the whole of data.
// Bytes left over after the message are reported as ErrTrailingBytes.
// On any error the returned message is nil; there are no partial
// results.
func Decode(data []byte) (Message, error) {
	d := NewDecoder(data)
	msg, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if n := d.Remaining(); n > 0 {
		return nil, errors.Wrapf(ErrTrailingBytes, "%d bytes at offset %d", n, d.off)
	}
	return msg, nil
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of bytes not yet consumed.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Decode decodes one message starting at the cursor and advances the
// cursor past it, including all nested content. The first error
// anywhere in the message aborts the whole decode and is returned;
// there is no resynchronization.
func (d *Decoder) Decode() (Message, error) {
	tag, err := d.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "message tag")
	}

	switch Type(tag) {
	case TypeNop:
		return Nop{}, nil
	case TypeText:
		s, err := d.decodeText()
		if err != nil {
			return nil, err
		}
		return Text(s), nil
	case TypeEmo:
		return d.decodeEmo()
	case TypeImage:
		return nil, ErrImageNotSupported
	case TypeCompound:
		return d.decodeCompound()
	default:
		return nil, &InvalidTypeError{Code: tag}
	}
}

// decodeText reassembles one text payload: length-prefixed slices up
// to and including the first slice whose prefix is not the overflow
// sentinel. The assembled bytes must be valid UTF-8 as a whole; the
// fixed slice width may split a multi-byte rune across two slices, so
// individual slices are not validated on their own.
func (d *Decoder) decodeText() (string, error) {
	var sb strings.Builder
	err := readChunked(
		func() (int, bool, error) {
			n, err := d.readUint16()
			if err != nil {
				return 0, false, err
			}
			return int(n), n == TextOverflowFlag, nil
		},
		TextSliceMax,
		func(n int) error {
			raw, err := d.readBytes(n)
			if err != nil {
				return err
			}
			sb.Write(raw)
			return nil
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "text payload")
	}
	s := sb.String()
	if !utf8.ValidString(s) {
		return "", ErrMalformedText
	}
	return s, nil
}

// decodeEmo maps one code byte through the closed emoticon table.
func (d *Decoder) decodeEmo() (Message, error) {
	code, err := d.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "emoticon code")
	}
	switch Emo(code) {
	case EmoNop, EmoLaugh, EmoCry:
		return Emo(code), nil
	default:
		return nil, &InvalidEmoticonError{Code: code}
	}
}

// decodeCompound reassembles one compound payload: count-prefixed
// chunks of nested messages, each decoded recursively, preserving
// order across chunks. Chunking mirrors text slicing at message-count
// granularity.
func (d *Decoder) decodeCompound() (Message, error) {
	msgs := Compound{}
	err := readChunked(
		func() (int, bool, error) {
			n, err := d.readByte()
			if err != nil {
				return 0, false, err
			}
			return int(n), n == CompoundOverflowFlag, nil
		},
		CompoundChunkMax,
		func(n int) error {
			for i := 0; i < n; i++ {
				msg, err := d.Decode()
				if err != nil {
					return errors.Wrapf(err, "item %d", len(msgs))
				}
				msgs = append(msgs, msg)
			}
			return nil
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "compound payload")
	}
	return msgs, nil
}

// readChunked drives one overflow-chunked payload. marker reads the
// next length or count prefix and reports whether it is the overflow
// sentinel; chunk consumes one chunk of the given size. Sentinel
// markers consume a full chunk and continue; the first non-sentinel
// marker carries the final chunk's real size and ends the loop.
func readChunked(marker func() (int, bool, error), full int, chunk func(int) error) error {
	for {
		n, overflow, err := marker()
		if err != nil {
			return err
		}
		if !overflow {
			return chunk(n)
		}
		if err := chunk(full); err != nil {
			return err
		}
	}
}

func (d *Decoder) readByte() (byte, error) {
	if d.Remaining() < 1 {
		return 0, ErrTruncated
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *Decoder) readUint16() (uint16, error) {
	if d.Remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrTruncated
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}
