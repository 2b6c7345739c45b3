package net

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	frameHeaderSize = 5
	maxMessageSize  = 16 << 20
)

// writeFrame writes a single message frame. The caller flushes w.
func writeFrame(w *bufio.Writer, msgType uint8, payload []byte) error {
	if len(payload) > maxMessageSize {
		return fmt.Errorf("%w: payload of %d bytes", ErrMalformedMessage, len(payload))
	}

	var header [frameHeaderSize]byte
	header[0] = msgType
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	_, err := w.Write(payload)
	return err
}

// readFrame reads a single message frame.
func readFrame(r io.Reader) (uint8, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	size := binary.BigEndian.Uint32(header[1:])
	if size > maxMessageSize {
		return 0, nil, fmt.Errorf("%w: frame of %d bytes", ErrMalformedMessage, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}

	return header[0], payload, nil
}
