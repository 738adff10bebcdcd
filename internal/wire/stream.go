package wire

import "net"

// readChunk is the size of each read(2) call used to refill FrameReader's
// internal buffer. A position-update frame is a handful of bytes, so this
// comfortably batches several frames per syscall under load.
const readChunk = 4096

// FrameReader turns a stream of bytes from a net.Conn into a sequence of
// decoded messages, retrying DecodeFrame as more bytes arrive instead of
// erroring on a partial frame.
type FrameReader struct {
	conn net.Conn
	buf  []byte
}

func NewFrameReader(conn net.Conn) *FrameReader {
	return &FrameReader{conn: conn}
}

// ReadMessage blocks until one full frame has been read and decoded, a
// framing error occurs, or the underlying connection reports EOF/an error.
func (f *FrameReader) ReadMessage() (Message, error) {
	for {
		msg, consumed, err := DecodeFrame(f.buf)
		if err == nil {
			f.buf = f.buf[consumed:]
			return msg, nil
		}
		if err != ErrShortRead {
			return nil, err
		}

		chunk := make([]byte, readChunk)
		n, readErr := f.conn.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
		}
		if readErr != nil {
			if n > 0 {
				// Try decoding what we have before surfacing the read error;
				// a peer that writes a frame then immediately closes should
				// still have that frame delivered.
				if msg, consumed, derr := DecodeFrame(f.buf); derr == nil {
					f.buf = f.buf[consumed:]
					return msg, nil
				}
			}
			return nil, readErr
		}
	}
}

// WriteMessage encodes m and writes it to conn in a single Write call.
func WriteMessage(conn net.Conn, m Message) error {
	frame, err := EncodeFrame(m)
	if err != nil {
		return err
	}
	_, err = conn.Write(frame)
	return err
}
