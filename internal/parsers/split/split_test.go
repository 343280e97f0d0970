package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(records []Record, carried int) int {
	total := carried
	for _, r := range records {
		total += r.Consumed
	}
	return total
}

func texts(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, string(r.Data))
	}
	return out
}

func TestSplit_CompleteRecords(t *testing.T) {
	s, err := New([]byte("\n"), 1024)
	require.NoError(t, err)

	records, carried := s.Split([]byte("one\ntwo\n"))
	assert.Equal(t, []string{"one", "two"}, texts(records))
	assert.Equal(t, 0, carried)
	assert.Equal(t, 4, records[0].Consumed)
	assert.Equal(t, 4, records[1].Consumed)
	assert.Equal(t, 0, s.Pending())
}

func TestSplit_CarriesAcrossCalls(t *testing.T) {
	s, err := New([]byte("\n"), 1024)
	require.NoError(t, err)

	input := "alpha\nbra"
	records, carried := s.Split([]byte(input))
	assert.Equal(t, []string{"alpha"}, texts(records))
	assert.Equal(t, 3, carried)
	assert.Equal(t, len(input), sum(records, carried))
	assert.Equal(t, 3, s.Pending())

	input = "vo\ncharlie"
	records, carried = s.Split([]byte(input))
	assert.Equal(t, []string{"bravo"}, texts(records))
	assert.Equal(t, 3, records[0].Consumed, "carried bytes were already accounted for")
	assert.Equal(t, len(input), sum(records, carried))
}

func TestSplit_RollbackRestoresCarry(t *testing.T) {
	s, err := New([]byte("\n"), 1024)
	require.NoError(t, err)

	_, carried := s.Split([]byte("one\ntw"))
	require.Equal(t, 2, carried)

	cp := s.Checkpoint()
	records, _ := s.Split([]byte("o\nthr"))
	assert.Equal(t, []string{"two"}, texts(records))
	assert.Equal(t, 3, s.Pending())

	s.Rollback(cp)
	assert.Equal(t, 2, s.Pending())

	records, carried = s.Split([]byte("o\n"))
	assert.Equal(t, []string{"two"}, texts(records))
	assert.Equal(t, 0, carried)
}

func TestSplit_DelimiterAcrossBoundary(t *testing.T) {
	s, err := New([]byte("\r\n"), 1024)
	require.NoError(t, err)

	records, carried := s.Split([]byte("a\r"))
	assert.Empty(t, records)
	assert.Equal(t, 2, carried)

	records, carried = s.Split([]byte("\nb\r\n"))
	assert.Equal(t, []string{"a", "b"}, texts(records))
	assert.Equal(t, 0, carried)
	assert.Equal(t, 4, sum(records, carried))
}

func TestSplit_TruncatesOversizedRecords(t *testing.T) {
	s, err := New([]byte("\n"), 4)
	require.NoError(t, err)

	records, carried := s.Split([]byte("abcdefg\nxy"))
	require.Len(t, records, 2)
	assert.Equal(t, "abcd", string(records[0].Data))
	assert.True(t, records[0].Truncated)
	assert.Equal(t, "efg", string(records[1].Data))
	assert.False(t, records[1].Truncated)
	assert.Equal(t, 2, carried)
	assert.Equal(t, 10, sum(records, carried))
}

func TestSplit_RecordsDoNotAliasInput(t *testing.T) {
	s, err := New([]byte("\n"), 1024)
	require.NoError(t, err)

	input := []byte("keep\n")
	records, _ := s.Split(input)
	input[0] = 'X'
	assert.Equal(t, "keep", string(records[0].Data))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, 10)
	assert.Error(t, err)
	_, err = New([]byte("\n"), 0)
	assert.Error(t, err)
}
