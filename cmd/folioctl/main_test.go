package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testBundle = `projects:
  - id: folio
    title: Folio
    summary: This site
    repoUrl: https://github.com/Zachkp/folio
posts:
  - id: first
    title: Hello World
    summary: A first post
    body: Some **bold** text.
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedExportPreview(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "folio.db")
	bundle := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(bundle, []byte(testBundle), 0o600))

	out, err := execute(t, "", "seed", bundle, "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "projects")
	assert.Contains(t, out, "imported 2 documents")

	exported := filepath.Join(dir, "export.yaml")
	out, err = execute(t, "", "export", "--db", db, "-o", exported)
	require.NoError(t, err, out)
	raw, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "title: Folio")
	assert.Contains(t, string(raw), "slug: hello-world")
	assert.Contains(t, string(raw), "sections:")

	// Seeding the export again keeps ids, so nothing is duplicated.
	_, err = execute(t, "", "seed", exported, "--db", db)
	require.NoError(t, err)
	out, err = execute(t, "", "export", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "title: Folio"))

	out, err = execute(t, "", "preview", "hello-world", "--db", db, "--style", "notty")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "Draft")
	assert.Contains(t, out, "bold")

	_, err = execute(t, "", "preview", "missing", "--db", db, "--style", "notty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no post with slug")
}

func TestSeedFromStdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folio.db")
	out, err := execute(t, testBundle, "seed", "-", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "imported 2 documents")
}

func TestSeedRejectsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bundle, []byte("projects:\n  - title: \"\"\n"), 0o600))

	_, err := execute(t, "", "seed", bundle, "--db", filepath.Join(dir, "folio.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import bundle")

	_, err = execute(t, "", "seed", filepath.Join(dir, "nope.yaml"), "--db", filepath.Join(dir, "folio.db"))
	require.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "hunter2")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	out, err = execute(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = execute(t, "", "hash-password")
	assert.Error(t, err)
}
