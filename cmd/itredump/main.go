// Command itredump decodes binary messages and prints them as JSON.
//
// The input is a concatenation of encoded messages, or a stream of
// length-prefixed frames when -framed is given. With -hex the input is
// hex text and whitespace is ignored, which makes it easy to paste
// captured bytes:
//
//	echo "82 01" | itredump -hex
//
// Reads from the named file, or from stdin when no file is given.
package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/Zereker/itre"
	"github.com/Zereker/itre/frame"
)

// messageView is the JSON shape of one decoded message.
type messageView struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Emo   string         `json:"emo,omitempty"`
	Items []*messageView `json:"items,omitempty"`
}

// view converts a decoded message tree into its JSON shape.
func view(message itre.Message) *messageView {
	v := &messageView{Type: message.Type().String()}

	switch m := message.(type) {
	case itre.Text:
		v.Text = string(m)
	case itre.Emo:
		v.Emo = m.String()
	case itre.Compound:
		for _, item := range m {
			v.Items = append(v.Items, view(item))
		}
	}

	return v
}

// dumpRaw decodes a concatenation of messages until the buffer is empty.
func dumpRaw(data []byte) ([]*messageView, error) {
	views := make([]*messageView, 0)

	decoder := itre.NewDecoder(data)
	for decoder.Remaining() > 0 {
		message, err := decoder.Decode()
		if err != nil {
			return nil, errors.Wrapf(err, "message %d (offset %d)", len(views), decoder.Offset())
		}
		views = append(views, view(message))
	}

	return views, nil
}

// dumpFramed decodes a stream of frames, one message per frame.
func dumpFramed(data []byte) ([]*messageView, error) {
	views := make([]*messageView, 0)
	limits := frame.DefaultLimits()

	r := bytes.NewReader(data)
	for {
		payload, err := frame.Read(r, limits)
		if errors.Is(err, io.EOF) {
			return views, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", len(views))
		}

		message, err := itre.Decode(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", len(views))
		}
		views = append(views, view(message))
	}
}

// decodeHex parses hex text into raw bytes, ignoring whitespace.
func decodeHex(data []byte) ([]byte, error) {
	clean := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			clean = append(clean, b)
		}
	}

	out := make([]byte, hex.DecodedLen(len(clean)))
	n, err := hex.Decode(out, clean)
	if err != nil {
		return nil, errors.Wrap(err, "parse hex input")
	}
	return out[:n], nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read stdin")
	}
	return os.ReadFile(path)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "itredump:", err)
	os.Exit(1)
}

func main() {
	hexInput := flag.Bool("hex", false, "treat input as hex text")
	framed := flag.Bool("framed", false, "treat input as a stream of length-prefixed frames")
	flag.Parse()

	data, err := readInput(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	if *hexInput {
		data, err = decodeHex(data)
		if err != nil {
			fatal(err)
		}
	}

	var views []*messageView
	if *framed {
		views, err = dumpFramed(data)
	} else {
		views, err = dumpRaw(data)
	}
	if err != nil {
		fatal(err)
	}

	for _, v := range views {
		out, err := sonic.MarshalIndent(v, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(out))
	}
}
