// Package itre implements decoding of the ITRE binary message format.
// Messages are variant-tagged (text, emoticon, image, compound); long
// text payloads and large compound messages span multiple fixed-size
// slices using a continuation sentinel. The decoder turns a fully
// received byte buffer into an immutable message tree.
package itre

import "fmt"

// Type identifies a message variant by its one-byte wire tag.
type Type byte

// Message type tags. The table is closed: decoding a tag outside it
// fails with *InvalidTypeError.
const (
	TypeText     Type = 0x80
	TypeEmo      Type = 0x82
	TypeImage    Type = 0x84
	TypeCompound Type = 0xfa
	TypeNop      Type = 0xfc
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeEmo:
		return "emo"
	case TypeImage:
		return "image"
	case TypeCompound:
		return "compound"
	case TypeNop:
		return "nop"
	default:
		return fmt.Sprintf("invalid(0x%02x)", byte(t))
	}
}

// Chunking constants. Each length prefix reserves exactly one value
// as its overflow sentinel; every other value is a real terminal
// length or count.
const (
	// TextOverflowFlag is the length-prefix value signalling that a
	// full TextSliceMax-byte slice follows and more slices remain.
	TextOverflowFlag uint16 = 0xffff

	// TextSliceMax is the number of raw bytes in one full text slice.
	// A terminal slice may also be exactly this long: the sentinel is
	// a reserved value, not "maximum length".
	TextSliceMax = 0xfffe

	// CompoundOverflowFlag is the count-prefix value signalling that a
	// full CompoundChunkMax-message chunk follows and more chunks
	// remain.
	CompoundOverflowFlag byte = 0xff

	// CompoundChunkMax is the number of nested messages in one full
	// compound chunk.
	CompoundChunkMax = 0xfe
)

// Message is one decoded wire message. The set of implementations is
// closed: Nop, Text, Emo, Image and Compound. Values are built
// bottom-up during a single decode call and never mutated afterwards.
type Message interface {
	// Type returns the message's wire tag.
	Type() Type

	// isMessage restricts implementations to this package.
	isMessage()
}

// Nop is a message with no payload.
type Nop struct{}

func (Nop) Type() Type { return TypeNop }
func (Nop) isMessage() {}

// Text is a message holding one UTF-8 string, reassembled from its
// wire slices.
type Text string

func (Text) Type() Type { return TypeText }
func (Text) isMessage() {}

// Emo is an emoticon message. Its value is the one-byte wire code.
type Emo byte

// Emoticon codes. The table is closed: decoding a code outside it
// fails with *InvalidEmoticonError.
const (
	EmoNop   Emo = 0x00
	EmoLaugh Emo = 0x01
	EmoCry   Emo = 0x02
)

func (Emo) Type() Type { return TypeEmo }
func (Emo) isMessage() {}

func (e Emo) String() string {
	switch e {
	case EmoNop:
		return "nop"
	case EmoLaugh:
		return "laugh"
	case EmoCry:
		return "cry"
	default:
		return fmt.Sprintf("invalid(0x%02x)", byte(e))
	}
}

// Image is reserved for a payload format that is not part of the
// protocol yet. Decoding the image tag fails with
// ErrImageNotSupported; no decode ever produces an Image value.
type Image struct{}

func (Image) Type() Type { return TypeImage }
func (Image) isMessage() {}

// Compound is an ordered sequence of nested messages, reassembled
// across its wire chunks. Compounds may nest other compounds; depth
// is bounded only by the size of the source buffer.
type Compound []Message

func (Compound) Type() Type { return TypeCompound }
func (Compound) isMessage() {}
