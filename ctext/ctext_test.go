package ctext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUTF8Defaults(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain ascii", []byte("hello, world"), "hello, world"},
		{"empty", nil, ""},
		{"latin-1 right half", []byte("caf\xe9"), "café"},
		{"tab and newline pass through", []byte("a\tb\nc"), "a\tb\nc"},
		{"carriage return dropped", []byte("a\rb"), "ab"},
		{"other controls dropped", []byte("a\x07b\x1fc"), "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTF8(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToUTF8Designations(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			"iso8859-5 to GR",
			[]byte("\x1b-L\xb0\xd0"),
			"Аа",
		},
		{
			"jis x 0201 kana to GR",
			[]byte("\x1b)I\xb1\xb2"),
			"ｱｲ",
		},
		{
			"jis x 0201 roman overrides in GL",
			[]byte("\x1b(J\x5c\x7e"),
			"¥‾",
		},
		{
			"jis x 0208 to GL",
			[]byte("\x1b$(B\x46\x7c\x4b\x5c"),
			"日本",
		},
		{
			"jis x 0208 short form",
			[]byte("\x1b$B\x46\x7c"),
			"日",
		},
		{
			"gb2312 to GR",
			[]byte("\x1b$)A\xd6\xd0\xce\xc4"),
			"中文",
		},
		{
			"ks c 5601 to GR",
			[]byte("\x1b$)C\xc7\xd1\xb1\xdb"),
			"한글",
		},
		{
			"ascii restored after multibyte",
			[]byte("AB\x1b$(B\x24\x2b\x24\x4a\x1b(BC"),
			"ABかなC",
		},
		{
			"unknown 94-set decodes as replacement",
			[]byte("\x1b(Zx"),
			"�",
		},
		{
			"unknown 96-set decodes as replacement",
			[]byte("\x1b-Z\xe9"),
			"�",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTF8(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToUTF8Mode(t *testing.T) {
	t.Run("enter and leave", func(t *testing.T) {
		in := append([]byte("\x1b%G"), "ñ"...)
		in = append(in, "\x1b%@\xe9"...)
		got, err := ToUTF8(in)
		require.NoError(t, err)
		assert.Equal(t, "ñé", got)
	})

	t.Run("unterminated run is tolerated", func(t *testing.T) {
		got, err := ToUTF8(append([]byte("\x1b%G"), "日本語"...))
		require.NoError(t, err)
		assert.Equal(t, "日本語", got)
	})

	t.Run("invalid bytes become replacement", func(t *testing.T) {
		got, err := ToUTF8([]byte("\x1b%G\xffok"))
		require.NoError(t, err)
		assert.Equal(t, "�ok", got)
	})
}

func TestToUTF8Directionality(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"left-to-right run", []byte("a\x9b1]bc\x9b]d"), "abcd"},
		{"right-to-left run", []byte("\x9b2]abc\x9b]"), "abc"},
		{"nested runs carry no text", []byte("\x9b1]a\x9b2]b\x9b]c\x9b]"), "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTF8(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("truncated sequence", func(t *testing.T) {
		_, err := ToUTF8([]byte("ab\x9b1"))
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

// segment builds ESC % / F M L name STX data by hand.
func segment(f byte, name string, data []byte) []byte {
	length := len(name) + 1 + len(data)
	out := []byte{0x1b, '%', '/', f, byte(0x80 | length>>7), byte(0x80 | length&0x7f)}
	out = append(out, name...)
	out = append(out, 0x02)
	return append(out, data...)
}

func TestToUTF8ExtendedSegments(t *testing.T) {
	t.Run("utf-8 segment", func(t *testing.T) {
		got, err := ToUTF8(segment('2', "UTF-8", []byte("日本語")))
		require.NoError(t, err)
		assert.Equal(t, "日本語", got)
	})

	t.Run("iso8859-15 segment", func(t *testing.T) {
		got, err := ToUTF8(segment('1', "iso8859-15", []byte{0xa4}))
		require.NoError(t, err)
		assert.Equal(t, "€", got)
	})

	t.Run("big5 segment", func(t *testing.T) {
		got, err := ToUTF8(segment('2', "big5-0", []byte{0xa4, 0xa4}))
		require.NoError(t, err)
		assert.Equal(t, "中", got)
	})

	t.Run("unknown encoding degrades to replacement", func(t *testing.T) {
		got, err := ToUTF8(segment('1', "koi8-r", []byte{0xc1, 0xc2}))
		require.NoError(t, err)
		assert.Equal(t, "�", got)
	})

	t.Run("text resumes after segment", func(t *testing.T) {
		in := append([]byte("a"), segment('2', "UTF-8", []byte("б"))...)
		in = append(in, 'z')
		got, err := ToUTF8(in)
		require.NoError(t, err)
		assert.Equal(t, "aбz", got)
	})
}

func TestToUTF8Errors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"bare escape", []byte{0x1b}},
		{"truncated designation", []byte("\x1b(")},
		{"truncated multibyte designation", []byte("\x1b$(")},
		{"truncated percent", []byte("\x1b%")},
		{"segment shorter than header", []byte("\x1b%/2")},
		{"segment body cut off", segment('2', "UTF-8", []byte("abcdef"))[:10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToUTF8(tt.in)
			assert.ErrorIs(t, err, ErrTruncated)
		})
	}

	t.Run("unsupported escape", func(t *testing.T) {
		_, err := ToUTF8([]byte("\x1bNx"))
		assert.Error(t, err)
	})
}

func TestFromUTF8(t *testing.T) {
	t.Run("ascii is copied verbatim", func(t *testing.T) {
		assert.Equal(t, []byte("hello\tworld\n"), FromUTF8("hello\tworld\n"))
	})

	t.Run("non-ascii becomes a utf-8 segment", func(t *testing.T) {
		got := FromUTF8("日")
		assert.Equal(t, segment('2', "UTF-8", []byte("日")), got)
	})

	t.Run("unrepresentable controls are dropped", func(t *testing.T) {
		assert.Equal(t, []byte("ab"), FromUTF8("a\rb"))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, s := range []string{
			"",
			"plain",
			"héllo 日本語",
			"中文 mixed with ascii",
			"tab\tand\nnewline",
			strings.Repeat("長い文字列", 2000),
		} {
			out, err := ToUTF8(FromUTF8(s))
			require.NoError(t, err)
			assert.Equal(t, s, out)
		}
	})
}
