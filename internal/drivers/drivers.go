// Package drivers implements the host-side halves of the disk, CD-ROM,
// and floppy unit drivers the trap dispatcher's escape handlers redirect
// Open/Prime/Control/Status calls to.
package drivers

import (
	"errors"
	"fmt"

	"basiliskgo/internal/trap"
)

// Mem aliases the dispatcher's guest address space surface so driver
// methods satisfy trap.DriverSet/trap.SCSIBus/trap.ADBBus directly, without
// a separate adapter type.
type Mem = trap.Mem

// CPU aliases the dispatcher's register surface for the same reason.
type CPU = trap.CPU

// Parameter block field offsets shared by every classic Mac OS I/O driver
// call (Inside Macintosh: Files, "Parameter Blocks").
const (
	pbIOResult  = 0x10
	pbIOVRefNum = 0x16
	pbIORefNum  = 0x18
	pbIOBuffer  = 0x20
	pbIOReqCount = 0x24
	pbIOActCount = 0x28
	pbIOPosMode = 0x2c
	pbIOPosOff  = 0x2e
	pbCSCode    = 0x1a // Control/Status selector
)

// Standard Mac OSErr values a driver reports through the parameter block,
// matching the dispatcher's own ioErr/noErr convention rather than
// inventing a parallel one.
const (
	noErr      = 0
	ioErr      = -36
	wrPermErr  = -61
	paramErr   = -50
	offLinErr  = -53
	controlErr = -17
)

// Image is one disk-image-backed unit: a flat byte slice (mmap'd or
// read-whole, the caller's choice) plus the geometry a driver's Control/
// Status selectors report.
type Image struct {
	Name       string
	Data       []byte
	BlockSize  int
	ReadOnly   bool
	Ejected    bool
}

// Set groups the Sony (floppy)/Disk/CDROM unit tables the dispatcher's
// genericDriverOp calls address by name; it satisfies trap.DriverSet.
type Set struct {
	units map[string][]*Image
}

// NewSet builds an empty driver set; call Mount to attach images before
// guest boot.
func NewSet() *Set {
	return &Set{units: make(map[string][]*Image)}
}

// Mount attaches image as the next unit under family ("Sony", "Disk", or
// "AppleCD"), returning its unit number.
func (s *Set) Mount(family string, image *Image) int {
	s.units[family] = append(s.units[family], image)
	return len(s.units[family]) - 1
}

// Tick1Hz is the IRQ escape's 1HZ servicing, posted once per second to
// every mounted family the way the original posts to Sony/Disk/CDROM in
// turn. Real drivers use this tick to spin down an idle drive motor; this
// core's disk images have no motor state to model, so it is a deliberate
// no-op that only exists to satisfy the per-source servicing the IRQ
// escape expects.
func (s *Set) Tick1Hz() {}

func (s *Set) unit(family string, pb uint32, m Mem) (*Image, error) {
	refNum := int16(m.Read16(pb + pbIORefNum))
	unit := int(^refNum) // driver refNums are stored as ones'-complement of the unit number
	units := s.units[family]
	if unit < 0 || unit >= len(units) {
		return nil, fmt.Errorf("drivers: %s unit %d not mounted", family, unit)
	}
	return units[unit], nil
}

// Open reports success unconditionally: every image in the set was already
// mounted at boot time, so Open has nothing left to do but acknowledge.
func (s *Set) Open(name string, pb uint32, m Mem) int16 {
	m.Write16(pb+pbIOResult, 0)
	return noErr
}

// Prime services a read or write request: bit 7 (0x80) of the parameter
// block's ioPosMode word selects write; with it clear the call is a read.
func (s *Set) Prime(name string, pb uint32, m Mem) int16 {
	img, err := s.unit(name, pb, m)
	if err != nil {
		return paramErr
	}
	if img.Ejected {
		return offLinErr
	}

	buffer := m.Read32(pb + pbIOBuffer)
	count := m.Read32(pb + pbIOReqCount)
	posMode := m.Read16(pb + pbIOPosMode)
	offset := int64(int32(m.Read32(pb + pbIOPosOff)))
	isWrite := posMode&0x80 != 0

	if offset < 0 || offset+int64(count) > int64(len(img.Data)) {
		m.Write32(pb+pbIOActCount, 0)
		return paramErr
	}

	if isWrite {
		if img.ReadOnly {
			return wrPermErr
		}
		data := m.ReadBlock(buffer, int(count))
		copy(img.Data[offset:], data)
	} else {
		m.WriteBlock(buffer, img.Data[offset:offset+int64(count)])
	}
	m.Write32(pb+pbIOActCount, uint32(count))
	return noErr
}

// Control services the small set of csCode selectors this core implements:
// eject (csCode 7) and format (csCode 6, reported unsupported since no
// guest ever needs to reformat a host-backed image).
func (s *Set) Control(name string, pb uint32, m Mem) int16 {
	img, err := s.unit(name, pb, m)
	if err != nil {
		return paramErr
	}
	csCode := m.Read16(pb + pbCSCode)
	switch csCode {
	case 7: // Eject
		img.Ejected = true
		return noErr
	case 6: // Format
		return controlErr
	default:
		return noErr
	}
}

// Status reports drive geometry for csCode 1 (DrvStatus-equivalent read of
// block count) and otherwise returns noErr, matching the permissive stance
// real Mac OS drivers take toward status codes they don't specifically
// implement.
func (s *Set) Status(name string, pb uint32, m Mem) int16 {
	img, err := s.unit(name, pb, m)
	if err != nil {
		return paramErr
	}
	switch m.Read16(pb + pbCSCode) {
	case 1:
		blocks := uint32(0)
		if img.BlockSize > 0 {
			blocks = uint32(len(img.Data) / img.BlockSize)
		}
		m.Write32(pb+pbIOBuffer, blocks)
		return noErr
	default:
		return noErr
	}
}

// ErrNotMounted is returned by Eject/Image lookups from host-side code
// (not the driver entry points above, which report paramErr instead since
// they speak OSErr, not Go errors).
var ErrNotMounted = errors.New("drivers: unit not mounted")
