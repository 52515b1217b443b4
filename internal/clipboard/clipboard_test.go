package clipboard

import "testing"

type fakeHost struct {
	text    string
	hasText bool
}

func (h *fakeHost) ReadText() (string, bool) { return h.text, h.hasText }
func (h *fakeHost) WriteText(s string)       { h.text, h.hasText = s, true }

func TestPutScrapTranslatesCRToLFAndPushesToHost(t *testing.T) {
	host := &fakeHost{}
	b := New(host)

	if err := b.PutScrap(scrapTypeText, []byte("AB\rC")); err != nil {
		t.Fatalf("PutScrap: %v", err)
	}
	if host.text != "AB\nC" {
		t.Fatalf("host text = %q, want %q", host.text, "AB\nC")
	}
}

func TestGetScrapTranslatesLFToCRFromHostUTF8(t *testing.T) {
	host := &fakeHost{text: "AB\nC", hasText: true}
	b := New(host)

	got, err := b.GetScrap(scrapTypeText)
	if err != nil {
		t.Fatalf("GetScrap: %v", err)
	}
	want := []byte{0x41, 0x42, 0x0D, 0x43}
	if string(got) != string(want) {
		t.Fatalf("GetScrap = %v, want %v", got, want)
	}
}

func TestGetScrapFallsBackToCacheWithoutHostText(t *testing.T) {
	b := New(&fakeHost{})
	if err := b.PutScrap(scrapTypeText, []byte("cached")); err != nil {
		t.Fatalf("PutScrap: %v", err)
	}

	got, err := b.GetScrap(scrapTypeText)
	if err != nil {
		t.Fatalf("GetScrap: %v", err)
	}
	if string(got) != "cached" {
		t.Fatalf("GetScrap = %q, want %q", got, "cached")
	}
}

func TestNonTextScrapRoundTripsWithoutHostInvolvement(t *testing.T) {
	host := &fakeHost{}
	b := New(host)
	const scrapTypePict = 0x50494354

	if err := b.PutScrap(scrapTypePict, []byte{1, 2, 3}); err != nil {
		t.Fatalf("PutScrap: %v", err)
	}
	if host.hasText {
		t.Fatal("non-TEXT PutScrap wrote to host clipboard")
	}

	got, err := b.GetScrap(scrapTypePict)
	if err != nil {
		t.Fatalf("GetScrap: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("GetScrap = %v, want [1 2 3]", got)
	}
}

func TestConversionCanBeDisabled(t *testing.T) {
	host := &fakeHost{}
	b := New(host)
	b.SetConversion(false)

	// 0xe4 is a high-half Mac Roman byte; with conversion disabled it
	// should pass through unchanged instead of mapping through mac2iso.
	if err := b.PutScrap(scrapTypeText, []byte{0xe4}); err != nil {
		t.Fatalf("PutScrap: %v", err)
	}
	if host.text != string([]byte{0xe4}) {
		t.Fatalf("host text = %v, want unconverted 0xe4", []byte(host.text))
	}
}
