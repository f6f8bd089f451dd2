package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	path, err := ResolvePath("plain/readme.db")
	require.NoError(t, err)
	require.Equal(t, "plain/readme.db", path)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	path, err = ResolvePath("<dev_state>/readme.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "readme.db"), path)
}
