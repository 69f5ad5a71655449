// Package ctext converts COMPOUND_TEXT, the ISO 2022 based text encoding
// used by X11 input methods and window properties, to and from UTF-8.
//
// ToUTF8 handles the designations emitted by common input-method servers:
// ASCII and JIS X 0201 in GL, the ISO 8859 right halves in GR, the
// two-byte JIS X 0208, GB 2312 and KS C 5601 sets, UTF-8 mode switching
// (ESC % G .. ESC % @), and UTF-8 extended segments. Characters outside
// the supported sets decode to U+FFFD; structurally broken input (a
// truncated escape or segment) is an error.
package ctext

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Control bytes with meaning inside COMPOUND_TEXT.
const (
	escByte = 0x1b
	csiByte = 0x9b
	stxByte = 0x02
)

var (
	// ErrTruncated reports an escape sequence or extended segment cut off
	// by the end of input.
	ErrTruncated = errors.New("ctext: truncated sequence")
)

// charsetKind describes how bytes of the active set are turned into runes.
type charsetKind int

const (
	kindASCII charsetKind = iota
	kindJIS0201Roman
	kindJIS0201Kana
	kindCharmap // single-byte right half via charmap table
	kindEUC     // two-byte set decoded through an EUC decoder
	kindInvalid // unknown designation; every character becomes U+FFFD
)

type charset struct {
	kind charsetKind
	cm   *charmap.Charmap  // kindCharmap
	euc  encoding.Encoding // kindEUC
}

var (
	csASCII        = charset{kind: kindASCII}
	csJIS0201Roman = charset{kind: kindJIS0201Roman}
	csJIS0201Kana  = charset{kind: kindJIS0201Kana}
	csInvalid      = charset{kind: kindInvalid}
)

// right96 maps the final byte of an ESC - F designation to its ISO 8859
// right half.
var right96 = map[byte]*charmap.Charmap{
	'A': charmap.ISO8859_1,
	'B': charmap.ISO8859_2,
	'C': charmap.ISO8859_3,
	'D': charmap.ISO8859_4,
	'F': charmap.ISO8859_7,
	'G': charmap.ISO8859_6,
	'H': charmap.ISO8859_8,
	'L': charmap.ISO8859_5,
	'M': charmap.ISO8859_9,
}

// multi94 maps the final byte of a multibyte designation to the EUC
// encoding whose high-bit form covers the set.
var multi94 = map[byte]encoding.Encoding{
	'@': japanese.EUCJP, // JIS X 0208-1978
	'A': simplifiedchinese.GBK,
	'B': japanese.EUCJP, // JIS X 0208-1983
	'C': korean.EUCKR,
}

// segmentEncodings maps extended-segment encoding names (lower-cased) to
// decoders. UTF-8 segments are handled inline.
var segmentEncodings = map[string]encoding.Encoding{
	"iso8859-14": charmap.ISO8859_14,
	"iso8859-15": charmap.ISO8859_15,
	"big5-0":     traditionalchinese.Big5,
}

// decoder is the ISO 2022 state machine. The zero designations are the
// COMPOUND_TEXT defaults: ASCII in GL, Latin-1 in GR.
type decoder struct {
	src []byte
	pos int
	out strings.Builder

	gl charset
	gr charset

	utf8Mode bool

	// pending accumulates a run of same-charset EUC bytes so multibyte
	// text is decoded in one transform instead of per pair.
	pending    []byte
	pendingEnc encoding.Encoding
}

// ToUTF8 converts COMPOUND_TEXT to a UTF-8 string. The result never
// aliases the input.
func ToUTF8(b []byte) (string, error) {
	d := decoder{
		src: b,
		gl:  csASCII,
		gr:  charset{kind: kindCharmap, cm: charmap.ISO8859_1},
	}
	if err := d.run(); err != nil {
		return "", err
	}
	return d.out.String(), nil
}

func (d *decoder) run() error {
	for d.pos < len(d.src) {
		c := d.src[d.pos]

		if d.utf8Mode && c != escByte {
			d.utf8Run()
			continue
		}

		switch {
		case c == escByte:
			d.flushPending()
			if err := d.escape(); err != nil {
				return err
			}
		case c == csiByte:
			d.flushPending()
			if err := d.directionality(); err != nil {
				return err
			}
		case c == '\t' || c == '\n':
			d.flushPending()
			d.out.WriteByte(c)
			d.pos++
		case c < 0x20 || (0x7f <= c && c < 0xa0):
			// Disallowed control range; drop the byte. Servers in the
			// wild occasionally emit 0x0d here.
			d.flushPending()
			d.pos++
		case c < 0x80:
			d.graphic(d.gl, c&0x7f, false)
		default:
			d.graphic(d.gr, c&0x7f, true)
		}
	}
	d.flushPending()
	// A missing ESC % @ at end of input is tolerated; the trailing text
	// was already consumed as UTF-8.
	return nil
}

// graphic consumes one graphic character of the active set. low is the
// byte with the high bit stripped; gr tells which half it came from.
func (d *decoder) graphic(cs charset, low byte, gr bool) {
	switch cs.kind {
	case kindASCII:
		d.flushPending()
		d.out.WriteByte(low)
		d.pos++
	case kindJIS0201Roman:
		d.flushPending()
		switch low {
		case 0x5c:
			d.out.WriteRune('¥')
		case 0x7e:
			d.out.WriteRune('‾')
		default:
			d.out.WriteByte(low)
		}
		d.pos++
	case kindJIS0201Kana:
		d.flushPending()
		if 0x21 <= low && low <= 0x5f {
			d.out.WriteRune(rune(0xff61 + uint32(low) - 0x21))
		} else {
			d.out.WriteRune(utf8.RuneError)
		}
		d.pos++
	case kindCharmap:
		d.flushPending()
		if gr {
			d.out.WriteRune(cs.cm.DecodeByte(low | 0x80))
		} else {
			d.out.WriteRune(utf8.RuneError)
		}
		d.pos++
	case kindEUC:
		// Two-byte character; both bytes must come from the same half.
		if d.pos+1 >= len(d.src) {
			d.out.WriteRune(utf8.RuneError)
			d.pos++
			return
		}
		b2 := d.src[d.pos+1]
		if gr && b2 < 0xa0 || !gr && (b2 < 0x21 || b2 > 0x7e) {
			d.out.WriteRune(utf8.RuneError)
			d.pos++
			return
		}
		if d.pendingEnc != cs.euc {
			d.flushPending()
			d.pendingEnc = cs.euc
		}
		d.pending = append(d.pending, low|0x80, b2|0x80)
		d.pos += 2
	default: // kindInvalid
		d.flushPending()
		d.out.WriteRune(utf8.RuneError)
		d.pos++
	}
}

// directionality parses a CSI sequence starting at d.pos (which holds
// CSI): CSI 1 ] begins a left-to-right run, CSI 2 ] right-to-left, and
// CSI ] ends the current run. Direction is presentation advice only; no
// text is emitted.
func (d *decoder) directionality() error {
	for i := d.pos + 1; i < len(d.src); i++ {
		if d.src[i] == ']' {
			d.pos = i + 1
			return nil
		}
	}
	return ErrTruncated
}

// flushPending decodes the accumulated EUC run.
func (d *decoder) flushPending() {
	if len(d.pending) == 0 {
		return
	}
	decoded, err := d.pendingEnc.NewDecoder().Bytes(d.pending)
	if err != nil {
		d.out.WriteRune(utf8.RuneError)
	} else {
		d.out.Write(decoded)
	}
	d.pending = d.pending[:0]
	d.pendingEnc = nil
}

// utf8Run copies bytes verbatim while in UTF-8 mode, replacing invalid
// sequences, until the next escape or end of input.
func (d *decoder) utf8Run() {
	start := d.pos
	for d.pos < len(d.src) && d.src[d.pos] != escByte {
		d.pos++
	}
	d.out.WriteString(strings.ToValidUTF8(string(d.src[start:d.pos]), "�"))
}

// escape parses one escape sequence starting at d.pos (which holds ESC).
func (d *decoder) escape() error {
	if d.pos+1 >= len(d.src) {
		return ErrTruncated
	}
	switch d.src[d.pos+1] {
	case '(': // 94-charset to GL
		f, err := d.final(2)
		if err != nil {
			return err
		}
		d.gl = designate94(f)
		return nil
	case ')': // 94-charset to GR
		f, err := d.final(2)
		if err != nil {
			return err
		}
		d.gr = designate94(f)
		return nil
	case '-': // 96-charset to GR
		f, err := d.final(2)
		if err != nil {
			return err
		}
		if cm, ok := right96[f]; ok {
			d.gr = charset{kind: kindCharmap, cm: cm}
		} else {
			d.gr = csInvalid
		}
		return nil
	case '$':
		return d.multibyte()
	case '%':
		return d.percent()
	default:
		return fmt.Errorf("ctext: unsupported escape 0x%02x", d.src[d.pos+1])
	}
}

// final consumes the escape of length n+1 and returns its final byte.
func (d *decoder) final(n int) (byte, error) {
	if d.pos+n >= len(d.src) {
		return 0, ErrTruncated
	}
	f := d.src[d.pos+n]
	d.pos += n + 1
	return f, nil
}

func designate94(f byte) charset {
	switch f {
	case 'B':
		return csASCII
	case 'J':
		return csJIS0201Roman
	case 'I':
		return csJIS0201Kana
	default:
		return csInvalid
	}
}

// multibyte parses ESC $ F, ESC $ ( F and ESC $ ) F.
func (d *decoder) multibyte() error {
	if d.pos+2 >= len(d.src) {
		return ErrTruncated
	}
	toGR := false
	f := d.src[d.pos+2]
	n := 2
	switch f {
	case '(':
		n = 3
	case ')':
		n = 3
		toGR = true
	}
	f, err := d.final(n)
	if err != nil {
		return err
	}
	cs := csInvalid
	if euc, ok := multi94[f]; ok {
		cs = charset{kind: kindEUC, euc: euc}
	}
	if toGR {
		d.gr = cs
	} else {
		d.gl = cs
	}
	return nil
}

// percent parses ESC % G (enter UTF-8 mode), ESC % @ (leave it) and
// ESC % / F M L (extended segment).
func (d *decoder) percent() error {
	if d.pos+2 >= len(d.src) {
		return ErrTruncated
	}
	switch d.src[d.pos+2] {
	case 'G':
		d.utf8Mode = true
		d.pos += 3
		return nil
	case '@':
		d.utf8Mode = false
		d.pos += 3
		return nil
	case '/':
		return d.extendedSegment()
	default:
		return fmt.Errorf("ctext: unsupported escape %% 0x%02x", d.src[d.pos+2])
	}
}

// extendedSegment parses ESC % / F M L name STX data. M and L carry the
// post-L length with the high bit set.
func (d *decoder) extendedSegment() error {
	if d.pos+5 >= len(d.src) {
		return ErrTruncated
	}
	m, l := d.src[d.pos+4], d.src[d.pos+5]
	if m < 0x80 || l < 0x80 {
		return fmt.Errorf("ctext: malformed segment length 0x%02x 0x%02x", m, l)
	}
	length := int(m&0x7f)<<7 | int(l&0x7f)
	body := d.pos + 6
	if body+length > len(d.src) {
		return ErrTruncated
	}
	seg := d.src[body : body+length]
	d.pos = body + length

	stx := -1
	for i, c := range seg {
		if c == stxByte {
			stx = i
			break
		}
	}
	if stx < 0 {
		return errors.New("ctext: extended segment without encoding name")
	}
	name := strings.ToLower(string(seg[:stx]))
	data := seg[stx+1:]

	switch {
	case name == "utf-8" || name == "utf8":
		d.out.WriteString(strings.ToValidUTF8(string(data), "�"))
	default:
		if enc, ok := segmentEncodings[name]; ok {
			decoded, err := enc.NewDecoder().Bytes(data)
			if err != nil {
				d.out.WriteRune(utf8.RuneError)
			} else {
				d.out.Write(decoded)
			}
		} else {
			// Unknown embedded encoding; the segment is self-delimiting
			// so it degrades to a single replacement character.
			d.out.WriteRune(utf8.RuneError)
		}
	}
	return nil
}
