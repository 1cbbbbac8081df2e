package source_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"codeberg.org/treska/revmon/internal/config"
	"codeberg.org/treska/revmon/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimAdvancesAndWraps(t *testing.T) {
	s := source.NewSim(100)
	s.Preset(65500)

	raw, err := s.CurrentCount()
	require.NoError(t, err)
	assert.Equal(t, uint16(64), raw, "register wraps modulo 2^16")

	s.SetStep(-64)
	raw, err = s.CurrentCount()
	require.NoError(t, err)
	assert.Equal(t, uint16(0), raw)
}

func TestNewSelectsBackend(t *testing.T) {
	src, err := source.New(config.DeviceConfig{Type: "sim"})
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, err = source.New(config.DeviceConfig{Type: "telepathy"})
	require.Error(t, err)

	_, err = source.New(config.DeviceConfig{Type: "serial"})
	require.Error(t, err, "serial without a port must fail")
}

// fakePort replays canned responses to counter poll requests.
type fakePort struct {
	reads  bytes.Buffer
	writes bytes.Buffer
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.reads.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.writes.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }

func TestSerialPollProtocol(t *testing.T) {
	port := &fakePort{}
	for _, v := range []uint16{65522, 55} {
		var frame [2]byte
		binary.BigEndian.PutUint16(frame[:], v)
		port.reads.Write(frame[:])
	}

	s := source.NewSerial(port)

	raw, err := s.CurrentCount()
	require.NoError(t, err)
	assert.Equal(t, uint16(65522), raw)

	raw, err = s.CurrentCount()
	require.NoError(t, err)
	assert.Equal(t, uint16(55), raw)

	assert.Equal(t, []byte{0x51, 0x51}, port.writes.Bytes(), "one poll byte per read")

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}

func TestSerialShortResponse(t *testing.T) {
	port := &fakePort{}
	port.reads.Write([]byte{0xAB})

	s := source.NewSerial(port)
	_, err := s.CurrentCount()
	require.Error(t, err)
}
