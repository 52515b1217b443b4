package trap

// SCSI Manager selector codes, numbered exactly as the real SCSI Manager
// trap entry points SCSI_DISPATCH multiplexes behind one escape ordinal —
// and as the original's own M68K_EMUL_OP_SCSI_DISPATCH switch numbers
// them. Selector 7 is unused by the real SCSI Manager.
const (
	SCSISelReset    = 0
	SCSISelGet      = 1
	SCSISelSelect   = 2
	SCSISelCmd      = 3
	SCSISelComplete = 4
	SCSISelRead     = 5
	SCSISelWrite    = 6
	SCSISelRBlind   = 8
	SCSISelWBlind   = 9
	SCSISelStat     = 10
	SCSISelSelAtn   = 11
	SCSISelMsgIn    = 12
	SCSISelMsgOut   = 13
	SCSISelMgrBusy  = 14
)

// scsiSelectorInfo documents how many argument bytes a selector consumes
// from the stack, beyond the return address and the selector word
// themselves; the selector's 16-bit result is written back at exactly that
// offset, which is also where the stack pointer ends up after dispatch.
type scsiSelectorInfo struct {
	name     string
	argBytes uint32
}

var scsiSelectors = map[uint16]scsiSelectorInfo{
	SCSISelReset:    {"SCSIReset", 0},
	SCSISelGet:      {"SCSIGet", 0},
	SCSISelSelect:   {"SCSISelect", 2},
	SCSISelCmd:      {"SCSICmd", 6},
	SCSISelComplete: {"SCSIComplete", 12},
	SCSISelRead:     {"SCSIRead", 4},
	SCSISelWrite:    {"SCSIWrite", 4},
	SCSISelRBlind:   {"SCSIRBlind", 4},
	SCSISelWBlind:   {"SCSIWBlind", 4},
	SCSISelStat:     {"SCSIStat", 0},
	SCSISelSelAtn:   {"SCSISelAtn", 2},
	SCSISelMsgIn:    {"SCSIMsgIn", 4},
	SCSISelMsgOut:   {"SCSIMsgOut", 2},
	SCSISelMgrBusy:  {"SCSIMgrBusy", 0},
}

// scsiSelectorLookup reports a selector's argument layout, or ok=false for
// a selector the real SCSI Manager does not define (including the unused
// 7), used by scsiDispatch in escapes.go both to size the stack
// consumption and to reject anything the original would have aborted on.
func scsiSelectorLookup(selector uint16) (scsiSelectorInfo, bool) {
	info, ok := scsiSelectors[selector]
	return info, ok
}
