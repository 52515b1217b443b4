package rompatch

// builder accumulates a slot declaration ROM the way the original
// construction routine does: a flat byte buffer addressed by a running
// cursor, with small helpers for the sResource list encoding (Inside
// Macintosh: Devices, chapter 2).
type builder struct {
	buf []byte
}

func (b *builder) pos() uint32 { return uint32(len(b.buf)) }

// offs appends an sResource entry whose data is an offset (in bytes) from
// this entry's own position to ptr — the format used for every "Offs"-typed
// field below.
func (b *builder) offs(kind uint8, ptr uint32) {
	offset := ptr - b.pos()
	b.buf = append(b.buf, kind, byte(offset>>16), byte(offset>>8), byte(offset))
}

// rsrc appends an sResource entry whose data is a literal 24-bit value.
func (b *builder) rsrc(kind uint8, data uint32) {
	b.buf = append(b.buf, kind, byte(data>>16), byte(data>>8), byte(data))
}

func (b *builder) endOfList() {
	b.buf = append(b.buf, 0xff, 0, 0, 0)
}

func (b *builder) long(v uint32) {
	b.buf = append(b.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (b *builder) word(v uint16) {
	b.buf = append(b.buf, byte(v>>8), byte(v))
}

func (b *builder) string(s string) uint32 {
	start := b.pos()
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	if b.pos()&1 != 0 {
		b.buf = append(b.buf, 0)
	}
	return start
}

func (b *builder) pstring(s string) uint32 {
	start := b.pos()
	if len(s) > 255 {
		s = s[:255]
	}
	b.buf = append(b.buf, byte(len(s)))
	b.buf = append(b.buf, s...)
	if b.pos()&1 != 0 {
		b.buf = append(b.buf, 0)
	}
	return start
}

// SlotROMConfig names the identifying strings and EMUL_OP ordinals the
// slot ROM's embedded video/ethernet driver stubs redirect to; everything
// else about the layout is fixed by the sResource format itself.
type SlotROMConfig struct {
	BoardName      string
	VendorName     string
	RevisionString string
	PartNumber     string
	BuildDate      string

	VideoDriverName string
	VideoOpenOp     byte
	VideoControlOp  byte
	VideoStatusOp   byte

	EtherDriverName string
	EtherOpenOp     byte
	EtherControlOp  byte

	FrameBufferBase uint32
}

// BuildSlotROM assembles the board/video/CPU/ethernet sResources and the
// directory and format/header block that closes a slot declaration ROM,
// then stamps the trailing checksum in place. The returned slice is ready
// to copy into the top of the guest ROM image, immediately below
// ROMBase+ROMSize.
func BuildSlotROM(cfg SlotROMConfig) []byte {
	b := &builder{}

	// Board sResource.
	boardType := b.pos()
	b.word(1)
	b.word(0)
	b.word(0)
	b.word(0)
	boardName := b.string(cfg.BoardName)
	vendorID := b.string(cfg.VendorName)
	revLevel := b.string(cfg.RevisionString)
	partNum := b.string(cfg.PartNumber)
	date := b.string(cfg.BuildDate)

	vendorInfo := b.pos()
	b.offs(0x01, vendorID)
	b.offs(0x03, revLevel)
	b.offs(0x04, partNum)
	b.offs(0x05, date)
	b.endOfList()

	sRsrcBoard := b.pos()
	b.offs(0x01, boardType)
	b.offs(0x02, boardName)
	b.rsrc(0x20, 0x4232) // Board ID 'B2'
	b.offs(0x24, vendorInfo)
	b.endOfList()

	// Video sResource: a single framebuffer entry, no per-depth mode table
	// (this emulator always drives one fixed pixel format; unlike the
	// original's per-monitor loop, there's nothing here for a mode switch
	// to select between).
	videoType := b.pos()
	b.word(3)
	b.word(1)
	b.word(1)
	b.word(0x4232)
	videoName := b.string(cfg.VideoDriverName)

	videoDrvr := b.pos()
	drvr := DriverDescriptor{
		Name:          "." + cfg.VideoDriverName,
		OpenOrdinal:   cfg.VideoOpenOp,
		PrimeOrdinal:  cfg.VideoOpenOp, // video Prime is a no-op in this driver
		ControlOrdinal: cfg.VideoControlOp,
		StatusOrdinal: cfg.VideoStatusOp,
	}.Build()
	b.buf = append(b.buf, drvr...)

	vidDrvrDir := b.pos()
	b.offs(0x02, videoDrvr) // sMacOS68020
	b.endOfList()

	minorBase := b.pos()
	b.long(cfg.FrameBufferBase)
	minorLength := b.pos()
	b.long(0) // unspecified, per the original's own framebuffer size field

	sRsrcVideo := b.pos()
	b.offs(0x01, videoType)
	b.offs(0x02, videoName)
	b.offs(0x04, vidDrvrDir)
	b.rsrc(0x08, 0x4232) // Hardware device ID 'B2'
	b.offs(0x0a, minorBase)
	b.offs(0x0b, minorLength)
	b.rsrc(0x7d, 6) // color, built-in
	b.endOfList()

	// CPU sResource.
	cpuType := b.pos()
	b.word(10)
	b.word(3)
	b.word(0)
	b.word(24) // CPU 68020
	cpuName := b.string("CPU_68020")
	cpuMajor := b.pos()
	b.long(0)
	b.long(0x7fffffff)
	cpuMinor := b.pos()
	b.long(0xf0800000)
	b.long(0xf0ffffff)

	sRsrcCPU := b.pos()
	b.offs(0x01, cpuType)
	b.offs(0x02, cpuName)
	b.offs(0x81, cpuMajor)
	b.offs(0x82, cpuMinor)
	b.endOfList()

	// Ethernet sResource.
	etherType := b.pos()
	b.word(4)
	b.word(1)
	b.word(1)
	b.word(0x4232)
	etherName := b.string(cfg.EtherDriverName)

	etherDrvr := b.pos()
	edrvr := DriverDescriptor{
		Name:          ".ENET",
		OpenOrdinal:   cfg.EtherOpenOp,
		PrimeOrdinal:  cfg.EtherControlOp, // shares Status's stub, per the original
		ControlOrdinal: cfg.EtherControlOp,
		StatusOrdinal: cfg.EtherControlOp,
	}.Build()
	b.buf = append(b.buf, edrvr...)

	etherDrvrDir := b.pos()
	b.offs(0x02, etherDrvr)
	b.endOfList()

	sRsrcEther := b.pos()
	b.offs(0x01, etherType)
	b.offs(0x02, etherName)
	b.offs(0x04, etherDrvrDir)
	b.rsrc(0x07, 2) // OpenAtStart
	b.rsrc(0x08, 0x4232)
	b.endOfList()

	// sResource directory.
	sRsrcDir := b.pos()
	b.offs(0x01, sRsrcBoard)
	b.offs(0x01, sRsrcVideo) // slot video entry, literal slot id 1
	b.offs(0xf0, sRsrcCPU)
	b.offs(0xf1, sRsrcEther)
	b.endOfList()

	// Format/header block.
	b.offs(0, sRsrcDir)
	b.long(b.pos() + 16) // length of declaration data
	b.long(0)            // checksum slot, filled in below
	b.word(0x0101)       // revision level, format
	b.long(0x5a932bc7)   // test pattern
	b.word(0x000f)       // byte lanes

	stampSlotROMChecksum(b.buf)
	return b.buf
}

// stampSlotROMChecksum writes the trailing checksum in place: zero the
// 4-byte slot 12 bytes before the end, then accumulate every byte of the
// whole image with a rotate-left-1-then-add running sum — the same
// algorithm the Mac ROM's own self-check uses, not a CRC-32 despite the
// field's traditional name.
func stampSlotROMChecksum(rom []byte) {
	n := len(rom)
	rom[n-12], rom[n-11], rom[n-10], rom[n-9] = 0, 0, 0, 0
	var sum uint32
	for i := 0; i < n; i++ {
		sum = (sum << 1) | (sum >> 31)
		sum += uint32(rom[i])
	}
	rom[n-12] = byte(sum >> 24)
	rom[n-11] = byte(sum >> 16)
	rom[n-10] = byte(sum >> 8)
	rom[n-9] = byte(sum)
}
