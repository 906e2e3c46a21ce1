package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })

	Version, Commit, Date = "v1.0.0", "abc", ""
	require.Equal(t, "v1.0.0 (abc)", String())
	Date = "2026-01-01T00:00:00Z"
	require.Equal(t, "v1.0.0 (abc, built 2026-01-01T00:00:00Z)", String())
}
