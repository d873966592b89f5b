package isolated

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/nemanja-m/scatter/pkg/core"
)

const maxFrameSize = 256 << 20

// ErrEncode marks a value that could not be encoded. Nothing has been
// written to the stream when it is returned.
var ErrEncode = errors.New("encode frame")

func init() {
	RegisterType([]any(nil))
	RegisterType(map[string]any(nil))
	RegisterType(map[string]int(nil))
	RegisterType(map[string]float64(nil))
	RegisterType(map[string]string(nil))
}

// RegisterType makes a concrete type transferable inside an interface value
// (an argument, a result). Both the parent and its workers must register
// the same types, typically from an init function. Basic types and slices
// of them are always transferable.
func RegisterType(value any) {
	gob.Register(value)
}

type Request struct {
	Seq  uint64
	Task string
	Args core.Args
}

type Response struct {
	Seq     uint64
	Outcome core.Outcome
}

// WriteFrame writes v as a length-prefixed frame. Each frame carries its
// own type information, so a frame that fails to encode leaves the stream
// usable.
func WriteFrame(w io.Writer, v any) error {
	var buf bytes.Buffer
	buf.Write(make([]byte, 4))
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	frame := buf.Bytes()
	size := len(frame) - 4
	if size > maxFrameSize {
		return fmt.Errorf("%w: frame of %d bytes exceeds limit", ErrEncode, size)
	}
	binary.BigEndian.PutUint32(frame[:4], uint32(size))

	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one frame into v. It returns io.EOF only when the stream
// ends cleanly between frames.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
