//go:build linux

package evdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EventSize is sizeof(struct input_event) on this architecture.
const EventSize = int(unsafe.Sizeof(rawEvent{}))

// Marshal encodes ev in the kernel's native layout. The timestamp is left
// zero; the kernel fills it in.
func Marshal(ev Event) []byte {
	raw := rawEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value}
	buf := make([]byte, EventSize)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(&raw)), EventSize))
	return buf
}

// Unmarshal decodes one event from b, which must hold at least EventSize
// bytes.
func Unmarshal(b []byte) Event {
	var raw rawEvent
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&raw)), EventSize), b[:EventSize])
	return Event{Type: raw.Type, Code: raw.Code, Value: raw.Value}
}

// Ioctl issues an ioctl whose argument is a pointer.
func Ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
