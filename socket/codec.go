package socket

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/Zereker/itre"
	"github.com/Zereker/itre/frame"
)

// Envelope carries one decoded message together with the encoded payload
// bytes it was decoded from. Handlers that relay messages to other
// connections can forward Payload as-is instead of re-encoding.
type Envelope struct {
	Message itre.Message
	Payload []byte
}

// Codec is the interface for reading and writing framed messages.
//
// The Decode method reads from an io.Reader, which allows the codec to handle
// TCP stream reassembly by reading exactly the number of bytes needed for
// a complete frame. This solves the TCP packet fragmentation problem.
type Codec interface {
	// Decode reads one frame from the reader and decodes its payload
	// into a message. The implementation should read exactly the bytes
	// needed for one frame.
	Decode(r io.Reader) (*Envelope, error)
	// Encode wraps an already encoded message payload in a frame for
	// transmission. It does not inspect the payload.
	Encode(payload []byte) ([]byte, error)
}

// frameCodec is the default Codec. It speaks the length-prefixed frame
// envelope and decodes every frame payload as a single message.
type frameCodec struct {
	limits   frame.Limits
	compress bool
}

// NewCodec returns a Codec using the given frame limits.
// When compress is true, outgoing payloads large enough to benefit from
// compression are compressed.
func NewCodec(limits frame.Limits, compress bool) Codec {
	return &frameCodec{limits: limits, compress: compress}
}

func (c *frameCodec) Decode(r io.Reader) (*Envelope, error) {
	payload, err := frame.Read(r, c.limits)
	if err != nil {
		return nil, err
	}

	message, err := itre.Decode(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode message")
	}

	return &Envelope{Message: message, Payload: payload}, nil
}

func (c *frameCodec) Encode(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if c.compress {
		err := frame.WriteCompressed(&buf, payload, c.limits)
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	if err := frame.Write(&buf, payload, c.limits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
