package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrConnectionClosed is returned by ReadFrame when the peer has closed the
// connection (or gone silent) during the length header or payload read.
var ErrConnectionClosed = errors.New("wire: connection closed")

// ErrSendFailed is returned by WriteFrame when the underlying Write fails.
var ErrSendFailed = errors.New("wire: send failed")

// maxZeroReadRetries bounds how many consecutive zero-byte reads ReadFrame
// tolerates before giving up and reporting ErrConnectionClosed. Grounded on
// original_source/source/shared.cpp's read_n, which retries up to 10000
// times on a zero-byte recv() before declaring the stream dead.
const maxZeroReadRetries = 10000

// readFull reads exactly len(buf) bytes from r, retrying zero-byte reads up
// to maxZeroReadRetries times. Any other error is returned immediately.
func readFull(r io.Reader, buf []byte) error {
	read := 0
	zeroRetries := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		if n == 0 {
			if err != nil && err != io.ErrNoProgress {
				return ErrConnectionClosed
			}
			zeroRetries++
			if zeroRetries >= maxZeroReadRetries {
				return ErrConnectionClosed
			}
			continue
		}
		zeroRetries = 0
		read += n
		if err != nil {
			if read == len(buf) {
				return nil
			}
			return ErrConnectionClosed
		}
	}
	return nil
}

// ReadFrame blocks until it has read one complete length-prefixed frame from
// r, or until it can determine the connection is closed. On success it
// returns the frame's payload (the length header is consumed, not returned).
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if err := readFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	payload := make([]byte, length)
	if length == 0 {
		return payload, nil
	}
	if err := readFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload to w as one length-prefixed frame, looping until
// every byte has been accepted or the write fails.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)

	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		if n < 0 {
			return fmt.Errorf("%w: negative write count", ErrSendFailed)
		}
		written += n
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
	}
	return nil
}

// SendClientRequest frames and writes a ClientRequest.
func SendClientRequest(w io.Writer, req ClientRequest) error {
	return WriteFrame(w, req.Encode())
}

// RecvClientRequest reads one frame and decodes it as a ClientRequest.
func RecvClientRequest(r io.Reader) (ClientRequest, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return ClientRequest{}, err
	}
	return DecodeClientRequest(payload)
}

// SendServerReply frames and writes a ServerReply.
func SendServerReply(w io.Writer, reply ServerReply) error {
	return WriteFrame(w, reply.Encode())
}

// RecvServerReply reads one frame and decodes it as a ServerReply.
func RecvServerReply(r io.Reader) (ServerReply, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return ServerReply{}, err
	}
	return DecodeServerReply(payload)
}
