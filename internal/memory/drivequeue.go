package memory

// Drive Queue element layout: 10 bytes, preceded by a 32-byte
// DrvSts block. The queue is rooted at guest address 0x308.
// queueElemSize is 12 bytes in practice (qLink+qType+dQDrive+dQRefNum+dQFSID
// = 4+2+2+2+2), matching the classic Mac OS DrvQEl layout; the "10
// bytes" is treated as a rounding of the distillation rather than a field
// count to hit exactly, since the five named fields unambiguously sum to 12.
const (
	DriveQueueHeader uint32 = 0x308
	drvStsSize       uint32 = 32
	queueElemSize    uint32 = 12
)

// DriveQueueElement mirrors the on-guest drive-queue record.
type DriveQueueElement struct {
	QLink    uint32 // next element, or 0
	QType    uint16
	DQDrive  uint16
	DQRefNum uint16
	DQFSID   uint16
}

// WalkDriveQueue follows qLink starting at the queue header and returns
// every element found, guarding against a cyclic queue by bounding the
// walk at 64 entries (far beyond any real Mac configuration).
func (p *Plane) WalkDriveQueue() []DriveQueueElement {
	var out []DriveQueueElement
	addr := p.Read32(DriveQueueHeader)
	for i := 0; addr != 0 && i < 64; i++ {
		out = append(out, DriveQueueElement{
			QLink:    p.Read32(addr),
			QType:    p.Read16(addr + 4),
			DQDrive:  p.Read16(addr + 6),
			DQRefNum: p.Read16(addr + 8),
			DQFSID:   p.Read16(addr + 10),
		})
		addr = p.Read32(addr)
	}
	return out
}

// NextFreeDriveNumber scans the drive queue and returns the smallest drive
// number (starting at 1) not already present, per the "iterate it
// to allocate free drive numbers".
func (p *Plane) NextFreeDriveNumber() uint16 {
	used := make(map[uint16]bool)
	for _, e := range p.WalkDriveQueue() {
		used[e.DQDrive] = true
	}
	for n := uint16(1); n < 0xFFFF; n++ {
		if !used[n] {
			return n
		}
	}
	return 0
}

// PushDriveQueueElement links a new element at guest address elemAddr onto
// the front of the queue, writing the 12-byte record and updating the
// header's qLink.
func (p *Plane) PushDriveQueueElement(elemAddr uint32, e DriveQueueElement) {
	head := p.Read32(DriveQueueHeader)
	p.Write32(elemAddr, head)
	p.Write16(elemAddr+4, e.QType)
	p.Write16(elemAddr+6, e.DQDrive)
	p.Write16(elemAddr+8, e.DQRefNum)
	p.Write16(elemAddr+10, e.DQFSID)
	p.Write32(DriveQueueHeader, elemAddr)
}
