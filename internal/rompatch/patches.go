package rompatch

// Escape ordinals a patch script redirects ROM call sites to. These mirror
// the dispatcher's own ordinal table by value; duplicated here rather than
// imported so a patch script can be described, and tested, without linking
// against the interpreter package at all.
const (
	ordDiskOpen     = 0x10
	ordDiskPrime    = 0x11
	ordDiskControl  = 0x12
	ordDiskStatus   = 0x13
	ordSCSIDispatch = 0x1D
	ordPutScrap     = 0x1F
	ordGetScrap     = 0x20
)

// EntryPatch names one ROM routine entry point to redirect to an EMUL_OP
// escape. Unlike the fingerprint-based Patch/Script pair, entry points are
// located by symbol offset (recorded per Version, the way the Mac ROM's own
// trap dispatch table is addressed) rather than by scanning for a byte
// pattern: the routine bodies differ across revisions, but the jump table
// slot pointing at them does not move.
type EntryPatch struct {
	Name    string
	Addr    uint32
	Ordinal byte
}

// ApplyEntries installs an EMUL_OP+RTS stub at every entry's address,
// returning the names successfully patched.
func ApplyEntries(rom []byte, entries []EntryPatch) []string {
	var applied []string
	for _, e := range entries {
		if err := ApplyAt(rom, e.Addr, e.Ordinal); err == nil {
			applied = append(applied, e.Name)
		}
	}
	return applied
}

// ApplyAt installs an EMUL_OP+RTS stub at a known address: the common case
// for a patch whose target is located by symbol/offset rather than by
// scanning for a byte pattern.
func ApplyAt(rom []byte, addr uint32, ordinal byte) error {
	if err := PutEmulOp(rom, addr, ordinal); err != nil {
		return err
	}
	if uint64(addr)+4 > uint64(len(rom)) {
		return nil
	}
	rom[addr+2], rom[addr+3] = 0x4e, 0x75 // RTS
	return nil
}

// DiskEntries builds the four-entry patch set for a ROM's Disk driver, once
// the caller has located its Open/Prime/Control/Status addresses (typically
// from a Version's recorded symbol table).
func DiskEntries(openAddr, primeAddr, controlAddr, statusAddr uint32) []EntryPatch {
	return []EntryPatch{
		{Name: "disk-open", Addr: openAddr, Ordinal: ordDiskOpen},
		{Name: "disk-prime", Addr: primeAddr, Ordinal: ordDiskPrime},
		{Name: "disk-control", Addr: controlAddr, Ordinal: ordDiskControl},
		{Name: "disk-status", Addr: statusAddr, Ordinal: ordDiskStatus},
	}
}

// ScsiManagerEntry redirects the ROM's SCSI Manager trap dispatcher to the
// SCSI_DISPATCH escape, located via the ROM's own trap table at offset
// 0x22 rather than a byte scan.
func ScsiManagerEntry(addr uint32) EntryPatch {
	return EntryPatch{Name: "scsi-manager", Addr: addr, Ordinal: ordSCSIDispatch}
}

// ScrapEntries redirects a ROM's PutScrap/GetScrap trap entries.
func ScrapEntries(putAddr, getAddr uint32) []EntryPatch {
	return []EntryPatch{
		{Name: "put-scrap", Addr: putAddr, Ordinal: ordPutScrap},
		{Name: "get-scrap", Addr: getAddr, Ordinal: ordGetScrap},
	}
}
