//go:build linux

package uinput

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/verte-zerg/radialkb/internal/evdev"
)

// ioctl numbers from linux/uinput.h.
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	busVirtual   = 0x06
	deviceName   = "radialkb virtual keyboard"
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

type device struct {
	fd int
}

// OpenDevice creates a virtual keyboard through the uinput node at path.
func OpenDevice(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	d := &device{fd: fd}
	if err := d.setup(); err != nil {
		// Best-effort close.
		_ = unix.Close(fd)
		return nil, err
	}
	return d, nil
}

func (d *device) setup() error {
	for _, ev := range []uint16{evdev.EvKey, evdev.EvSyn} {
		if err := unix.IoctlSetInt(d.fd, uiSetEvBit, int(ev)); err != nil {
			return fmt.Errorf("set evbit %d: %w", ev, err)
		}
	}
	for _, code := range Codes() {
		if err := unix.IoctlSetInt(d.fd, uiSetKeyBit, int(code)); err != nil {
			return fmt.Errorf("set keybit %d: %w", code, err)
		}
	}
	setup := uinputSetup{ID: inputID{Bustype: busVirtual, Vendor: 0x1209, Product: 0x7262, Version: 1}}
	copy(setup.Name[:], deviceName)
	if err := evdev.Ioctl(d.fd, uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		return fmt.Errorf("device setup: %w", err)
	}
	if err := unix.IoctlSetInt(d.fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("device create: %w", err)
	}
	return nil
}

func (d *device) Write(events []evdev.Event) error {
	buf := make([]byte, 0, len(events)*evdev.EventSize)
	for _, ev := range events {
		buf = append(buf, evdev.Marshal(ev)...)
	}
	if _, err := unix.Write(d.fd, buf); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	return nil
}

func (d *device) Close() error {
	// Best-effort destroy; closing the fd also removes the device.
	_ = unix.IoctlSetInt(d.fd, uiDevDestroy, 0)
	return unix.Close(d.fd)
}
