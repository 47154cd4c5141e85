package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	req := require.New(t)

	s := NewSequence()
	req.Equal(uint64(0), s.Current())
	req.Equal(uint64(1), s.Next())
	req.Equal(uint64(2), s.Next())
	req.Equal(uint64(2), s.Current())
}
