package output

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
}

// DefaultQRConfig returns defaults sized for a 43-character address.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.M,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// RenderQR draws data as a QR code when w is a terminal and does nothing
// otherwise.
func RenderQR(w io.Writer, data string, cfg QRConfig) {
	if IsTerminal(w) {
		WriteQR(w, data, cfg)
	}
}

// WriteQR draws data as a QR code regardless of the writer type.
func WriteQR(w io.Writer, data string, cfg QRConfig) {
	config := qrterminal.Config{
		Level:     cfg.Level,
		Writer:    w,
		QuietZone: cfg.QuietZone,
	}
	if cfg.HalfBlocks {
		config.HalfBlocks = true
		config.BlackChar = qrterminal.BLACK_BLACK
		config.WhiteChar = qrterminal.WHITE_WHITE
		config.WhiteBlackChar = qrterminal.WHITE_BLACK
		config.BlackWhiteChar = qrterminal.BLACK_WHITE
	} else {
		config.BlackChar = qrterminal.BLACK
		config.WhiteChar = qrterminal.WHITE
	}
	qrterminal.GenerateWithConfig(data, config)
}
