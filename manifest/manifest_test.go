package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[run]
name = "examples"

[scripts.hello]
file = "scripts/hello.sl"
bytecode = false

[scripts.fact]
file = "fact.sl"
ast = true
`), 0o644))

	m, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "examples", m.Run.Name)
	require.Len(t, m.Scripts, 2)

	hello := m.Scripts["hello"]
	assert.Equal(t, filepath.Join(dir, "scripts", "hello.sl"), hello.File)
	require.NotNil(t, hello.Bytecode)
	assert.False(t, *hello.Bytecode)
	assert.Nil(t, hello.AST)

	fact := m.Scripts["fact"]
	assert.Equal(t, filepath.Join(dir, "fact.sl"), fact.File)
	require.NotNil(t, fact.AST)
	assert.True(t, *fact.AST)
}

func TestLoadRejectsScriptWithoutFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scripts.empty]\nbytecode = true\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
