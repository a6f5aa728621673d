package device

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
)

// Kind selects the device direction.
type Kind int

const (
	Playback Kind = iota
	Capture
)

func (k Kind) malgoType() malgo.DeviceType {
	if k == Capture {
		return malgo.Capture
	}
	return malgo.Playback
}

// ErrNoDevice is returned when no device matches a request.
var ErrNoDevice = errors.New("device: no such device")

// Info describes one hardware endpoint.
type Info struct {
	ID        string
	Name      string
	IsDefault bool
}

// Devices enumerates the available endpoints of the given kind.
func Devices(kind Kind) ([]Info, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("device: init context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(kind.malgoType())
	if err != nil {
		return nil, fmt.Errorf("device: enumerate: %w", err)
	}
	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		out = append(out, Info{
			ID:        decodeID(info.ID.String()),
			Name:      info.Name(),
			IsDefault: info.IsDefault == 1,
		})
	}
	return out, nil
}

// Default returns the system default endpoint of the given kind.
func Default(kind Kind) (Info, error) {
	infos, err := Devices(kind)
	if err != nil {
		return Info{}, err
	}
	for _, info := range infos {
		if info.IsDefault {
			return info, nil
		}
	}
	if len(infos) > 0 {
		return infos[0], nil
	}
	return Info{}, ErrNoDevice
}

// decodeID turns miniaudio's hex-encoded device identifier into its
// ASCII form where possible.
func decodeID(hexID string) string {
	raw, err := hex.DecodeString(hexID)
	if err != nil {
		return hexID
	}
	// trim trailing NUL padding
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}
