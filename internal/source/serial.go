package source

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Wire protocol of the serial counter board: a single poll byte is answered
// by a big-endian snapshot of the 16-bit register.
const (
	pollByte        = 0x51
	readTimeoutMs   = 100
	registerByteLen = 2
)

// Serial reads the counter register from a board attached over a serial
// line.
type Serial struct {
	port io.ReadWriteCloser
	buf  [registerByteLen]byte
}

// OpenSerial opens the serial counter board on the given device path.
func OpenSerial(device string, baud int) (*Serial, error) {
	if device == "" {
		return nil, errFactory.New(ErrMissingPort)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeoutMs * time.Millisecond,
	})
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	return NewSerial(port), nil
}

// NewSerial wraps an already-open port speaking the counter board protocol.
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{port: port}
}

func (s *Serial) CurrentCount() (uint16, error) {
	if _, err := s.port.Write([]byte{pollByte}); err != nil {
		return 0, errFactory.Wrap(ErrPollFailed, err)
	}

	if _, err := io.ReadFull(s.port, s.buf[:]); err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return binary.BigEndian.Uint16(s.buf[:]), nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
