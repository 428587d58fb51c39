package testing

import (
	"fmt"
	"sync"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/css"
)

// Seek records one Seek call on a FakeMedium.
type Seek struct {
	Sector int
	Flags  css.SeekFlags
}

// Read records one Read call on a FakeMedium.
type Read struct {
	Sector int
	Count  int
	Flags  css.ReadFlags
}

// FakeMedium is an in-memory medium with scriptable bad sectors. All calls are recorded.
type FakeMedium struct {
	Data      []byte
	Scrambled bool
	// Bad sectors always fail to read.
	Bad map[int]bool

	mutex  sync.Mutex
	seeks  []Seek
	reads  []Read
	closed bool
}

// Seeks returns the recorded seeks.
func (m *FakeMedium) Seeks() []Seek {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Seek(nil), m.seeks...)
}

// Reads returns the recorded reads.
func (m *FakeMedium) Reads() []Read {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Read(nil), m.reads...)
}

// ResetCalls forgets the recorded calls.
func (m *FakeMedium) ResetCalls() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.seeks, m.reads = nil, nil
}

// Closed reports whether the last handle was closed.
func (m *FakeMedium) Closed() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.closed
}

// FakeService is a css.Service serving FakeMedium instances by name.
type FakeService struct {
	Media map[string]*FakeMedium
}

// NewFakeService returns a service with one medium.
func NewFakeService(name string, medium *FakeMedium) *FakeService {
	return &FakeService{Media: map[string]*FakeMedium{name: medium}}
}

func (s *FakeService) Open(name string) (css.Handle, error) {
	m, ok := s.Media[name]
	if !ok {
		return nil, fmt.Errorf("no such device: %s", name)
	}
	m.mutex.Lock()
	m.closed = false
	m.mutex.Unlock()
	return &fakeHandle{medium: m}, nil
}

type fakeHandle struct {
	medium   *FakeMedium
	position int
}

func (h *fakeHandle) sectors() int {
	return len(h.medium.Data) / consts.DVD_SECTOR_SIZE
}

func (h *fakeHandle) Seek(sector int, flags css.SeekFlags) (int, error) {
	m := h.medium
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.seeks = append(m.seeks, Seek{Sector: sector, Flags: flags})
	if sector < 0 || sector > h.sectors() {
		return -1, fmt.Errorf("seek out of range: %d", sector)
	}
	h.position = sector
	return sector, nil
}

func (h *fakeHandle) Read(buf []byte, count int, flags css.ReadFlags) (int, error) {
	m := h.medium
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.reads = append(m.reads, Read{Sector: h.position, Count: count, Flags: flags})

	got := 0
	for got < count && h.position+got < h.sectors() && !m.Bad[h.position+got] {
		got++
	}
	if got == 0 && m.Bad[h.position] {
		return -1, fmt.Errorf("read error at sector %d", h.position)
	}
	start := h.position * consts.DVD_SECTOR_SIZE
	copy(buf, m.Data[start:start+got*consts.DVD_SECTOR_SIZE])
	h.position += got
	return got, nil
}

func (h *fakeHandle) IsScrambled() bool {
	return h.medium.Scrambled
}

func (h *fakeHandle) SizeInSectors() int {
	return h.sectors()
}

func (h *fakeHandle) Close() error {
	h.medium.mutex.Lock()
	defer h.medium.mutex.Unlock()
	h.medium.closed = true
	return nil
}
