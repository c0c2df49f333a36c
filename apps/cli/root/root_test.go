package root

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-mb-upgrade/domains/messageboards/be/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	Root().SetOut(&out)
	Root().SetErr(&bytes.Buffer{})
	Root().SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func TestSlugCommand(t *testing.T) {
	out, err := run(t, "slug", "7", "Café", "Déjà", "Vu")
	require.NoError(t, err)
	require.Equal(t, "cafe-deja-vu\n", out)

	out, err = run(t, "slug", "7")
	require.NoError(t, err)
	require.Equal(t, "7 (fallback to message id)\n", out)

	_, err = run(t, "slug", "abc")
	require.ErrorContains(t, err, "invalid message id")
}

func TestBootstrapUpgradeVerifySQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "mb.db")
	common := []string{"--driver", "sqlite3", "--database-url", dsn, "--log-level", "error"}

	out, err := run(t, append([]string{"bootstrap"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Bootstrap complete (driver sqlite3).")

	_, err = run(t, append([]string{"verify"}, common...)...)
	require.ErrorIs(t, err, service.ErrColumnMissing)

	out, err = run(t, append([]string{"upgrade", "run"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "applied 3.1.0 url subject")

	out, err = run(t, append([]string{"verify"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "OK: every message has a unique url subject")
}
