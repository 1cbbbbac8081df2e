// Package source provides the raw sample backends feeding the encoder
// tracker: a synthetic simulator, a serial-attached counter board and an
// I2C-attached counter peripheral.
package source

import (
	"codeberg.org/treska/revmon/internal/config"
	"codeberg.org/treska/revmon/internal/encoder"
	"codeberg.org/treska/revmon/internal/errors"
)

var errFactory = errors.New()

// Source is a closable sample source.
type Source interface {
	encoder.Source
	Close() error
}

// New opens the sample source selected by the device configuration.
func New(cfg config.DeviceConfig) (Source, error) {
	switch cfg.Type {
	case "sim":
		return NewSim(0), nil
	case "serial":
		return OpenSerial(cfg.Port, cfg.Baud)
	case "i2c":
		return OpenI2C(cfg.Bus, uint16(cfg.Addr))
	default:
		return nil, errFactory.WithData(ErrUnknownDevice, cfg.Type)
	}
}
