package ctext

// FromUTF8 renders a UTF-8 string as COMPOUND_TEXT. ASCII runs are copied
// as-is (ASCII is the default GL set); everything else is wrapped in a
// UTF-8 extended segment, which every COMPOUND_TEXT consumer that follows
// the current ICCCM understands. This is the minimal encoder needed to
// feed text back to a server or to synthesize server traffic in tests.
func FromUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && s[j] >= 0x20 && s[j] < 0x7f {
			j++
		}
		if j > i {
			out = append(out, s[i:j]...)
			i = j
			continue
		}
		if s[i] == '\t' || s[i] == '\n' {
			out = append(out, s[i])
			i++
			continue
		}
		// Non-ASCII run: extend to the next ASCII byte.
		j = i
		for j < len(s) && s[j] >= 0x80 {
			j++
		}
		if j == i {
			// Control byte COMPOUND_TEXT cannot carry; drop it.
			i++
			continue
		}
		for _, chunk := range splitSegments(s[i:j]) {
			out = appendUTF8Segment(out, chunk)
		}
		i = j
	}
	return out
}

// A segment length field holds 14 bits; stay well under it and split on
// rune boundaries.
const maxSegmentData = 16000

func splitSegments(data string) []string {
	if len(data) <= maxSegmentData {
		return []string{data}
	}
	var chunks []string
	for len(data) > maxSegmentData {
		cut := maxSegmentData
		for cut > 0 && data[cut]&0xc0 == 0x80 {
			cut--
		}
		chunks = append(chunks, data[:cut])
		data = data[cut:]
	}
	return append(chunks, data)
}

// appendUTF8Segment appends ESC % / 2 M L "UTF-8" STX data.
func appendUTF8Segment(out []byte, data string) []byte {
	const name = "UTF-8"
	length := len(name) + 1 + len(data)
	out = append(out, escByte, '%', '/', '2',
		byte(0x80|length>>7), byte(0x80|length&0x7f))
	out = append(out, name...)
	out = append(out, stxByte)
	return append(out, data...)
}
