package versioning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, text := range []string{"0.0.0", "1.0.0", "1.2.3", "10.20.30", "0.0.42", "18446744073709551615.0.1", "01.02.003", "0.00.0"} {
		r, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, r.String())
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"a.b.c",
		"v1.2.3",
		"1.2.3-beta",
		"1.2.3+build",
		" 1.2.3",
		"1.2.3 ",
		"1.2.3\n",
		"-1.2.3",
		"1..3",
		"18446744073709551616.0.0", // overflows uint64
	}

	for _, text := range cases {
		_, err := Parse(text)
		require.Error(t, err, "%q should be rejected", text)
		assert.True(t, errors.Is(err, ErrInvalidFormat), "%q: %v", text, err)

		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, text, fe.Text)
		assert.Contains(t, err.Error(), "MAJOR.MINOR.PATCH")
	}
}

func TestParse_LeadingZerosKeepText(t *testing.T) {
	r, err := Parse("01.02.003")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Major)
	assert.Equal(t, uint64(2), r.Minor)
	assert.Equal(t, uint64(3), r.Patch)
	assert.Equal(t, "01.02.003", r.String())
	assert.True(t, r.Equal(MustParse("1.2.3")))

	// Computed versions are canonical
	next, err := r.Bump(LevelPatch)
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", next.String())
}

func TestRecord_Bump(t *testing.T) {
	base := MustParse("1.2.3")

	for level, want := range map[Level]string{
		LevelPatch: "1.2.4",
		LevelMinor: "1.3.0",
		LevelMajor: "2.0.0",
	} {
		got, err := base.Bump(level)
		require.NoError(t, err)
		assert.Equal(t, want, got.String())
	}

	// Bump never mutates the receiver
	assert.Equal(t, "1.2.3", base.String())
}

func TestRecord_BumpOverflow(t *testing.T) {
	patchMax := MustParse("1.2.18446744073709551615")
	_, err := patchMax.Bump(LevelPatch)
	assert.ErrorIs(t, err, ErrVersionOverflow)

	// Higher levels reset the saturated component and still work
	next, err := patchMax.Bump(LevelMinor)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", next.String())

	_, err = MustParse("18446744073709551615.0.0").Bump(LevelMajor)
	assert.ErrorIs(t, err, ErrVersionOverflow)
	_, err = MustParse("0.18446744073709551615.0").Bump(LevelMinor)
	assert.ErrorIs(t, err, ErrVersionOverflow)
}

func TestRecord_TextMarshaling(t *testing.T) {
	r := MustParse("4.5.6")
	text, err := r.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "4.5.6", string(text))

	var back Record
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, r, back)

	assert.ErrorIs(t, back.UnmarshalText([]byte("nope")), ErrInvalidFormat)
}

func TestParseLevel(t *testing.T) {
	for text, want := range map[string]Level{
		"patch": LevelPatch,
		"minor": LevelMinor,
		"major": LevelMajor,
		"MAJOR": LevelMajor,
	} {
		got, err := ParseLevel(text)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want.String(), got.String())
	}

	_, err := ParseLevel("build")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("Current")
	require.NoError(t, err)
	assert.Equal(t, SlotCurrent, s)

	_, err = ParseSlot("next")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}
