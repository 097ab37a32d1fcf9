//go:build linux

package touch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/evdev"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// eviocgabsBase is EVIOCGABS(0); the axis number is added to it.
const eviocgabsBase = 0x80184540

type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// Device reads one evdev node.
type Device struct {
	Path      string
	Transform Transform
	Log       *zap.SugaredLogger
}

// Run reads the device until ctx is done or the device goes away.
func (d Device) Run(ctx context.Context, sink func(protocol.Event)) error {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f, err := os.OpenFile(d.Path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open touch device: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		// Unblocks the pending read.
		_ = f.Close()
	})
	defer func() {
		if stop() {
			_ = f.Close()
		}
	}()

	dec, err := d.decoder(f)
	if err != nil {
		return err
	}
	log.Infow("touch device opened", "path", d.Path)

	buf := make([]byte, evdev.EventSize*64)
	for {
		n, err := f.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("touch device %s closed", d.Path)
			}
			return fmt.Errorf("read touch device: %w", err)
		}
		for off := 0; off+evdev.EventSize <= n; off += evdev.EventSize {
			for _, ev := range dec.Feed(evdev.Unmarshal(buf[off:])) {
				sink(ev)
			}
		}
	}
}

func (d Device) decoder(f *os.File) (*Decoder, error) {
	mtX, errX := queryAbs(f, evdev.AbsMTPositionX)
	mtY, errY := queryAbs(f, evdev.AbsMTPositionY)
	if errX == nil && errY == nil && mtX.Max > mtX.Min {
		return NewDecoder(mtX, mtY, true, d.Transform), nil
	}
	x, err := queryAbs(f, evdev.AbsX)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no absolute axes: %v", ErrUnsupported, d.Path, err)
	}
	y, err := queryAbs(f, evdev.AbsY)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no y axis: %v", ErrUnsupported, d.Path, err)
	}
	return NewDecoder(x, y, false, d.Transform), nil
}

func queryAbs(f *os.File, axis uint16) (AxisRange, error) {
	conn, err := f.SyscallConn()
	if err != nil {
		return AxisRange{}, err
	}
	var info absInfo
	var ioctlErr error
	err = conn.Control(func(fd uintptr) {
		ioctlErr = evdev.Ioctl(int(fd), eviocgabsBase+uintptr(axis), unsafe.Pointer(&info))
	})
	if err != nil {
		return AxisRange{}, err
	}
	if ioctlErr != nil {
		return AxisRange{}, ioctlErr
	}
	return AxisRange{Min: info.Minimum, Max: info.Maximum}, nil
}
