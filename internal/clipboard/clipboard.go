// Package clipboard implements the PutScrap/GetScrap bridge between guest
// 'TEXT' scrap data and the host clipboard, including the Mac-OS-Roman-to-
// ISO-Latin-1 byte translation and CR/LF conversion classic Mac OS clipboard
// sync performs.
package clipboard

import "sync"

// mac2iso translates Mac OS Roman high-half bytes (0x80-0xff) to their
// ISO-Latin-1 equivalents. Index with c&0x7f.
var mac2iso = [0x80]byte{
	0xc4, 0xc5, 0xc7, 0xc9, 0xd1, 0xd6, 0xdc, 0xe1,
	0xe0, 0xe2, 0xe4, 0xe3, 0xe5, 0xe7, 0xe9, 0xe8,
	0xea, 0xeb, 0xed, 0xec, 0xee, 0xef, 0xf1, 0xf3,
	0xf2, 0xf4, 0xf6, 0xf5, 0xfa, 0xf9, 0xfb, 0xfc,
	0x2b, 0xb0, 0xa2, 0xa3, 0xa7, 0xb7, 0xb6, 0xdf,
	0xae, 0xa9, 0x20, 0xb4, 0xa8, 0x23, 0xc6, 0xd8,
	0x20, 0xb1, 0x3c, 0x3e, 0xa5, 0xb5, 0xf0, 0x53,
	0x50, 0x70, 0x2f, 0xaa, 0xba, 0x4f, 0xe6, 0xf8,
	0xbf, 0xa1, 0xac, 0x2f, 0x66, 0x7e, 0x44, 0xab,
	0xbb, 0x2e, 0x20, 0xc0, 0xc3, 0xd5, 0x4f, 0x6f,
	0x2d, 0x2d, 0x22, 0x22, 0x60, 0x27, 0xf7, 0x20,
	0xff, 0x59, 0x2f, 0xa4, 0x3c, 0x3e, 0x66, 0x66,
	0x23, 0xb7, 0x2c, 0x22, 0x25, 0xc2, 0xca, 0xc1,
	0xcb, 0xc8, 0xcd, 0xce, 0xcf, 0xcc, 0xd3, 0xd4,
	0x20, 0xd2, 0xda, 0xdb, 0xd9, 0x69, 0x5e, 0x7e,
	0xaf, 0x20, 0xb7, 0xb0, 0xb8, 0x22, 0xb8, 0x20,
}

// iso2mac translates ISO-Latin-1 high-half bytes to their Mac OS Roman
// equivalents. Index with c&0x7f.
var iso2mac = [0x80]byte{
	0xad, 0xb0, 0xe2, 0xc4, 0xe3, 0xc9, 0xa0, 0xe0,
	0xf6, 0xe4, 0xde, 0xdc, 0xce, 0xb2, 0xb3, 0xb6,
	0xb7, 0xd4, 0xd5, 0xd2, 0xd3, 0xa5, 0xd0, 0xd1,
	0xf7, 0xaa, 0xdf, 0xdd, 0xcf, 0xba, 0xfd, 0xd9,
	0xca, 0xc1, 0xa2, 0xa3, 0xdb, 0xb4, 0xbd, 0xa4,
	0xac, 0xa9, 0xbb, 0xc7, 0xc2, 0xf0, 0xa8, 0xf8,
	0xa1, 0xb1, 0xc3, 0xc5, 0xab, 0xb5, 0xa6, 0xe1,
	0xfc, 0xc6, 0xbc, 0xc8, 0xf9, 0xda, 0xd7, 0xc0,
	0xcb, 0xe7, 0xe5, 0xcc, 0x80, 0x81, 0xae, 0x82,
	0xe9, 0x83, 0xe6, 0xe8, 0xed, 0xea, 0xeb, 0xec,
	0xf5, 0x84, 0xf1, 0xee, 0xef, 0xcd, 0x85, 0xfb,
	0xaf, 0xf4, 0xf2, 0xf3, 0x86, 0xfa, 0xb8, 0xa7,
	0x88, 0x87, 0x89, 0x8b, 0x8a, 0x8c, 0xbe, 0x8d,
	0x8f, 0x8e, 0x90, 0x91, 0x93, 0x92, 0x94, 0x95,
	0xfe, 0x96, 0x98, 0x97, 0x99, 0x9b, 0x9a, 0xd6,
	0xbf, 0x9d, 0x9c, 0x9e, 0x9f, 0xff, 0xb9, 0xd8,
}

// scrapTypeText is the 'TEXT' four-character scrap type; the only one this
// bridge translates. Other types are cached and returned verbatim.
const scrapTypeText = 0x54455854

// Bridge is the host-side clipboard collaborator behind PutScrap/GetScrap.
// Host is the platform clipboard surface (typically the video package's
// window backend); Bridge owns only the Mac-side translation and caching,
// mirroring the original's clip_data cache plus X11 selection glue, with
// the X11-specific half replaced by the Host interface.
type Bridge struct {
	mu   sync.Mutex
	host Host

	noConversion bool
	cache        map[uint32][]byte
}

// Host is the narrow surface a platform clipboard needs to provide: read
// the current host clipboard text and claim ownership of new text a guest
// wrote.
type Host interface {
	ReadText() (string, bool)
	WriteText(s string)
}

// New builds a Bridge over host. A nil host is legal; PutScrap/GetScrap
// then fall back to the internal cache only, exercising the same code
// path a headless run would.
func New(host Host) *Bridge {
	return &Bridge{host: host, cache: make(map[uint32][]byte)}
}

// SetConversion toggles Mac-Roman/ISO-Latin-1 byte translation. Some guest
// applications pre-translate text themselves; disabling conversion then
// avoids double-translating it, matching the original's no_clip_conversion
// flag.
func (b *Bridge) SetConversion(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noConversion = !on
}

// PutScrap caches data under scrapType and, for 'TEXT', pushes it to the
// host clipboard translated to ISO-Latin-1 with CR converted to LF.
func (b *Bridge) PutScrap(scrapType uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cached := make([]byte, len(data))
	copy(cached, data)
	b.cache[scrapType] = cached

	if scrapType != scrapTypeText || b.host == nil {
		return nil
	}

	out := make([]byte, len(data))
	for i, c := range data {
		switch {
		case c == 13:
			out[i] = 10 // CR -> LF
		case c < 0x80:
			out[i] = c
		case !b.noConversion:
			out[i] = mac2iso[c&0x7f]
		default:
			out[i] = c
		}
	}
	b.host.WriteText(string(out))
	return nil
}

// GetScrap returns the current scrap for scrapType. For 'TEXT' it first
// checks the host clipboard (translating ISO-Latin-1 to Mac Roman with LF
// converted to CR); if the host has no text, or scrapType is anything
// else, the last cached PutScrap value is returned.
func (b *Bridge) GetScrap(scrapType uint32) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if scrapType == scrapTypeText && b.host != nil {
		if text, ok := b.host.ReadText(); ok {
			raw := []byte(text)
			out := make([]byte, len(raw))
			for i, c := range raw {
				switch {
				case c == 10:
					out[i] = 13 // LF -> CR
				case c < 0x80:
					out[i] = c
				case !b.noConversion:
					out[i] = iso2mac[c&0x7f]
				default:
					out[i] = c
				}
			}
			return out, nil
		}
	}
	return b.cache[scrapType], nil
}
