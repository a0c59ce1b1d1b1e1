// Package manifest loads toml run manifests: a list of scripts to
// run in one invocation, with per-script display options.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Manifest struct {
	Run     RunDetails            `toml:""`
	Scripts map[string]ScriptSpec `toml:",omitempty"`
}

type RunDetails struct {
	Name string `toml:",omitempty"`
}

// ScriptSpec configures one script. AST and Bytecode toggle the
// listings the runner prints; unset means the runner's default.
type ScriptSpec struct {
	File     string `toml:",omitempty"`
	AST      *bool  `toml:",omitempty"`
	Bytecode *bool  `toml:",omitempty"`
}

func parse(f io.Reader) (*Manifest, error) {
	var out Manifest
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadFromFile reads a manifest and resolves every script path
// relative to the manifest's own directory.
func LoadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := parse(f)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for name, script := range m.Scripts {
		if script.File == "" {
			return nil, fmt.Errorf("manifest: script %q has no file", name)
		}
		script.File = filepath.Clean(filepath.Join(dir, script.File))
		m.Scripts[name] = script
	}
	return m, nil
}
