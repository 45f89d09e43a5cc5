package ingest

// derive.go computes synthetic fields for records that survived
// validation and duplicate detection: generated identifiers, QR payloads,
// and composed names. None of these are essential to record integrity,
// so every failure degrades to a placeholder instead of rejecting the row.

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// qrPixelWidth is the rendered QR image size. Error correction and margin
// are fixed by the encoder defaults.
const qrPixelWidth = 512

// knownAbbreviations maps well-known client names to their established
// short forms, checked before the word-initial rules.
var knownAbbreviations = map[string]string{
	"tata consultancy services": "TCS",
	"larsen & toubro":           "LT",
	"hindustan unilever":        "HUL",
	"state bank of india":       "SBI",
}

// Deriver carries the collaborators derivation steps need. A zero-value
// Deriver still works: identifiers fall back to pseudo-random suffixes
// and QR codes degrade to their plain payload.
type Deriver struct {
	Org   string
	Seq   Sequencer
	Blobs ObjectStore
	Now   func() time.Time
	Log   *slog.Logger
}

// OrgPrefix returns the configured identifier prefix, defaulting to "CISS".
func (d *Deriver) OrgPrefix() string {
	if d.Org != "" {
		return d.Org
	}
	return "CISS"
}

func (d *Deriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deriver) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// Abbreviate derives a client abbreviation: exact lookup first, then
// word initials for multi-word names, then the whole word when it is at
// most 4 characters, else the first 4 characters. Always uppercased.
func Abbreviate(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if abbr, ok := knownAbbreviations[strings.ToLower(name)]; ok {
		return abbr
	}

	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
	if len(words) > 1 {
		var b strings.Builder
		for _, w := range words {
			b.WriteByte(w[0])
		}
		return strings.ToUpper(b.String())
	}

	if len(name) <= 4 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(name[:4])
}

// FinancialYear labels the April–March fiscal period containing t,
// e.g. "2025-26" for any date from 2025-04-01 through 2026-03-31.
func FinancialYear(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// Identifier generates "<org>/<ABBR>/<FY>/<NNN>". The numeric suffix
// comes from the sequencer, scoped per (ABBR, FY) so repeated and
// concurrent runs cannot collide. Without a sequencer it falls back to a
// pseudo-random suffix offset by the row position.
func (d *Deriver) Identifier(ctx context.Context, org, clientName string, rowIndex int) string {
	abbr := Abbreviate(clientName)
	fy := FinancialYear(d.now())

	n := 0
	if d.Seq != nil {
		next, err := d.Seq.Next(ctx, abbr+"/"+fy)
		if err == nil {
			n = next
		} else {
			d.log().Warn("sequencer unavailable, using random suffix", "scope", abbr+"/"+fy, "error", err)
		}
	}
	if n == 0 {
		n = (rand.IntN(1000) + rowIndex) % 1000
	}

	return fmt.Sprintf("%s/%s/%s/%03d", org, abbr, fy, n)
}

// QRPayload builds the fixed-format multi-line payload encoded into
// employee badges.
func QRPayload(id, name, phone string) string {
	return fmt.Sprintf("Employee ID: %s\nName: %s\nPhone: %s", id, name, phone)
}

// QRImage encodes payload into a PNG and uploads it under
// <kind>/qr/<random>.png, returning the storage URL. On encoder or
// upload failure it returns ("", false); callers store the plain payload
// for client-side rendering instead.
func (d *Deriver) QRImage(ctx context.Context, kind, payload string) (string, bool) {
	if d.Blobs == nil {
		return "", false
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, qrPixelWidth)
	if err != nil {
		d.log().Warn("qr encode failed", "error", err)
		return "", false
	}

	path := fmt.Sprintf("%s/qr/%s.png", kind, uuid.New().String())
	url, err := d.Blobs.Put(ctx, path, png, "image/png")
	if err != nil {
		d.log().Warn("qr upload failed", "path", path, "error", err)
		return "", false
	}

	return url, true
}

// FullName joins name parts, skipping empties.
func FullName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
