package bridge

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"unsafe"
)

// identity is an index into the callable arena.
// A Go pointer cannot be hidden in a byte buffer: the collector would not see it.
type identity uint64

// slotSize is the width of the identity slot preceding every encoded name.
const slotSize = 8

// encodeName lays out {identity}{name}{NUL} in a single allocation.
// fname, the part handed to the host as the function name, starts at name;
// the slot stays directly in front of it.
func encodeName(id identity, name string) (buf []byte, fname []byte) {
	buf = make([]byte, slotSize+len(name)+1)
	binary.LittleEndian.PutUint64(buf[:slotSize], uint64(id))
	copy(buf[slotSize:], name)
	return buf, buf[slotSize:]
}

// decodeName reads the slot in front of fname.
// fname must come from encodeName; anything else is undefined.
func decodeName(fname []byte) identity {
	start := unsafe.Add(unsafe.Pointer(unsafe.SliceData(fname)), -slotSize)
	slot := unsafe.Slice((*byte)(start), slotSize)
	return identity(binary.LittleEndian.Uint64(slot))
}

// arena holds every Callable ever created. Entries are never removed, so an
// identity stays valid for the life of the process.
var arena struct {
	sync.Mutex
	callables atomic.Pointer[[]*Callable]
}

func enroll(c *Callable) identity {
	arena.Lock()
	defer arena.Unlock()
	var next []*Callable
	if cur := arena.callables.Load(); cur != nil {
		next = make([]*Callable, len(*cur), len(*cur)+1)
		copy(next, *cur)
	}
	next = append(next, c)
	arena.callables.Store(&next)
	return identity(len(next) - 1)
}

func lookup(id identity) *Callable {
	return (*arena.callables.Load())[id]
}
