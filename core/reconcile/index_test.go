package reconcile

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDedupePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DedupePolicy
		wantErr bool
	}{
		{in: "", want: DedupeLast},
		{in: "last", want: DedupeLast},
		{in: " First ", want: DedupeFirst},
		{in: "reject", want: DedupeReject},
		{in: "keep-all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDedupePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_DedupePolicies(t *testing.T) {
	first := Record{"Id": "1", "V": "first"}
	second := Record{"Id": "1", "V": "second"}

	tests := []struct {
		policy  DedupePolicy
		want    string
		wantErr bool
	}{
		{policy: DedupeLast, want: "second"},
		{policy: DedupeFirst, want: "first"},
		{policy: DedupeReject, want: "first", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			idx := NewIndex(tt.policy)
			require.NoError(t, idx.Add("1|", first))

			err := idx.Add("1|", second)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDuplicateKey)
			} else {
				assert.NoError(t, err)
			}

			rec, ok := idx.Lookup("1|")
			require.True(t, ok)
			assert.Equal(t, tt.want, rec["V"])
			assert.Equal(t, 1, idx.Len())
			assert.Equal(t, 1, idx.Duplicates())
		})
	}
}

func TestIndex_ComplementKeepsInsertionOrder(t *testing.T) {
	idx := NewIndex(DedupeLast)
	for _, k := range []string{"c", "a", "b", "a"} {
		require.NoError(t, idx.Add(k, Record{"K": k}))
	}

	exclude := NewKeySet()
	exclude.Add("a")

	got := idx.Complement(exclude)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0]["K"])
	assert.Equal(t, "b", got[1]["K"])

	assert.Len(t, idx.Complement(nil), 3)
}

func TestKeySet_ConcurrentAdd(t *testing.T) {
	s := NewKeySet()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.Add(fmt.Sprintf("key-%d", i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, s.Len())
	assert.True(t, s.Contains("key-42"))
	assert.False(t, s.Contains("key-500"))
}
