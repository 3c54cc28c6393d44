package versioning

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_EqualSlotsOfferCandidates(t *testing.T) {
	s, dir := newTestStore(t)
	require.NoError(t, s.Set("2.0.0", SlotNew))
	require.NoError(t, s.Set("2.0.0", SlotCurrent))

	before := snapshotDir(t, dir)
	sum := Summarize(s.Read())

	assert.False(t, sum.Pending)
	assert.Nil(t, sum.Next)
	require.NotNil(t, sum.Candidates)
	assert.Equal(t, "2.0.1", sum.Candidates.Patch.String())
	assert.Equal(t, "2.1.0", sum.Candidates.Minor.String())
	assert.Equal(t, "3.0.0", sum.Candidates.Major.String())
	minor, ok := sum.Candidates.For(LevelMinor)
	require.True(t, ok)
	assert.Equal(t, "2.1.0", minor.String())
	assertNextVersion(t, "2.0.1", sum)

	assert.Equal(t, before, snapshotDir(t, dir), "summary must not touch persisted state")
}

func TestSummarize_ExplicitNewWins(t *testing.T) {
	st := State{New: MustParse("3.0.0"), Current: MustParse("2.0.0")}
	sum := Summarize(st)

	assert.True(t, sum.Pending)
	require.NotNil(t, sum.Next)
	assert.Equal(t, "3.0.0", sum.Next.String())
	assert.Nil(t, sum.Candidates)
	assertNextVersion(t, "3.0.0", sum)
}

func TestSummarize_Defaults(t *testing.T) {
	// 1.0.0 vs 0.0.0: the default state already names the first release
	sum := Summarize(State{New: DefaultNew, Current: DefaultCurrent})
	assert.True(t, sum.Pending)
	assertNextVersion(t, "1.0.0", sum)
}

func TestSummarize_SkipsOverflowingCandidate(t *testing.T) {
	top := MustParse("1.2.18446744073709551615")
	sum := Summarize(State{New: top, Current: top})

	require.NotNil(t, sum.Candidates)
	assert.Nil(t, sum.Candidates.Patch)
	_, ok := sum.Candidates.For(LevelPatch)
	assert.False(t, ok)
	minor, ok := sum.Candidates.For(LevelMinor)
	require.True(t, ok)
	assert.Equal(t, "1.3.0", minor.String())

	_, err := sum.NextVersion()
	assert.ErrorIs(t, err, ErrVersionOverflow)
}

func TestSummarize_LeadingZerosEqualCurrent(t *testing.T) {
	sum := Summarize(State{New: MustParse("2.00.1"), Current: MustParse("2.0.1")})
	assert.False(t, sum.Pending, "numerically equal slots are not a pending release")
}

func assertNextVersion(t *testing.T, want string, sum Summary) {
	t.Helper()
	got, err := sum.NextVersion()
	require.NoError(t, err)
	assert.Equal(t, want, got.String())
}

func snapshotDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(dir + string(os.PathSeparator) + e.Name())
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}
