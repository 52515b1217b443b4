package drivers

// SCSI Manager selector codes, duplicated by value from trap's selector
// table (see trap/scsi.go) rather than imported. Numbered exactly as the real SCSI Manager entry points; 7 is unused.
const (
	scsiReset    = 0
	scsiGet      = 1
	scsiSelect   = 2
	scsiCmd      = 3
	scsiComplete = 4
	scsiRead     = 5
	scsiWrite    = 6
	scsiRBlind   = 8
	scsiWBlind   = 9
	scsiStat     = 10
	scsiSelAtn   = 11
	scsiMsgIn    = 12
	scsiMsgOut   = 13
	scsiMgrBusy  = 14
)

const (
	scsiStatGood           = 0
	scsiStatCheckCondition = 2
)

// SCSITarget is one addressable SCSI ID backed by an Image, letting the
// same image a Sony/.Disk/.AppleCD driver serves also answer SCSI Manager
// calls the way a real external CD-ROM or hard drive would.
type SCSITarget struct {
	Image    *Image
	offset   int64
	selected bool
}

// SCSIBus implements the trap.SCSIBus collaborator over a small set of
// targets indexed by SCSI ID (0-6).
type SCSIBus struct {
	targets    [7]*SCSITarget
	current    *SCSITarget
	lastStatus uint16
}

// NewSCSIBus builds an empty bus; attach targets with AddTarget before boot.
func NewSCSIBus() *SCSIBus {
	return &SCSIBus{}
}

// AddTarget attaches img as SCSI ID id (0-6).
func (b *SCSIBus) AddTarget(id int, img *Image) {
	if id < 0 || id >= len(b.targets) {
		return
	}
	b.targets[id] = &SCSITarget{Image: img}
}

// Dispatch services one SCSI Manager selector. The trap dispatcher has
// already copied the selector's stack arguments into scratch registers
// before calling in: D1 holds the target id for Select/SelAtn, the CDB
// length for Cmd, or the transfer-info-block pointer for Read/Write/
// RBlind/WBlind; D2/D3 hold Cmd's CDB pointer or Complete's extra longs.
func (b *SCSIBus) Dispatch(selector uint16, c CPU, m Mem) int16 {
	switch selector {
	case scsiReset:
		for _, t := range b.targets {
			if t != nil {
				t.offset = 0
			}
		}
		b.current = nil
		return scsiStatGood

	case scsiGet:
		return scsiStatGood

	case scsiSelect, scsiSelAtn:
		id := int(c.Reg(1) & 0xff)
		if id < 0 || id >= len(b.targets) || b.targets[id] == nil {
			return -1 // no such device
		}
		b.current = b.targets[id]
		b.current.selected = true
		return scsiStatGood

	case scsiCmd:
		return scsiStatGood

	case scsiRead, scsiRBlind:
		return b.transfer(c, m, false)

	case scsiWrite, scsiWBlind:
		return b.transfer(c, m, true)

	case scsiComplete:
		return scsiStatGood

	case scsiStat:
		return int16(b.lastStatus)

	case scsiMsgIn, scsiMsgOut:
		return 0

	case scsiMgrBusy:
		return scsiStatGood

	default:
		return -1
	}
}

// transfer moves data between the selected target's image and the
// transfer-info-block D1 points at: a simplified {buffer uint32,
// length uint32} pair rather than the original's full scatter-gather TIB,
// since the collaborator that drives that richer format (scsi.cpp) is not
// part of the retrieval pack this core is grounded on.
func (b *SCSIBus) transfer(c CPU, m Mem, write bool) int16 {
	if b.current == nil || b.current.Image == nil {
		b.lastStatus = scsiStatCheckCondition
		return -1
	}
	tib := c.Reg(1)
	buf := m.Read32(tib)
	length := int64(m.Read32(tib + 4))
	img := b.current.Image

	if b.current.offset+length > int64(len(img.Data)) {
		b.lastStatus = scsiStatCheckCondition
		return -1
	}

	if write {
		if img.ReadOnly {
			b.lastStatus = scsiStatCheckCondition
			return -1
		}
		data := m.ReadBlock(buf, int(length))
		copy(img.Data[b.current.offset:], data)
	} else {
		m.WriteBlock(buf, img.Data[b.current.offset:b.current.offset+length])
	}
	b.current.offset += length
	b.lastStatus = scsiStatGood
	return scsiStatGood
}
