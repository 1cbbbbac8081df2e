package source

import (
	"encoding/binary"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

const (
	defaultI2CAddr = 0x36

	// Counter register of the peripheral, two bytes big-endian.
	regCount = 0x00
)

// I2C reads the counter register from an I2C-attached peripheral.
type I2C struct {
	dev *i2c.Dev
	bus i2c.BusCloser
}

// OpenI2C opens the counter peripheral. An empty busName selects the first
// available bus; addr zero selects the default peripheral address.
func OpenI2C(busName string, addr uint16) (*I2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	if addr == 0 {
		addr = defaultI2CAddr
	}

	return &I2C{
		dev: &i2c.Dev{Addr: addr, Bus: bus},
		bus: bus,
	}, nil
}

func (d *I2C) CurrentCount() (uint16, error) {
	var buf [2]byte
	if err := d.dev.Tx([]byte{regCount}, buf[:]); err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return binary.BigEndian.Uint16(buf[:]), nil
}

func (d *I2C) Close() error {
	return d.bus.Close()
}
