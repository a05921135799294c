package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localName turns "dir/config.json5" into "dir/config.local.json5".
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readInto[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads `name` (which must carry an extension) and merges
// `<name>.local.<ext>` over it when present. Values already set in `base`
// are kept unless a file overrides them.
//
// os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string, base T) (T, error) {
	out := base

	var fromFile T
	foundDefault, err := readInto(name, &fromFile)
	if err != nil {
		return base, err
	}
	if foundDefault {
		err = mergo.Merge(&out, fromFile, mergo.WithOverride)
		if err != nil {
			return base, err
		}
	}

	var override T
	localPath := localName(name)
	foundLocal, err := readInto(localPath, &override)
	if err != nil {
		return base, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return base, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundDefault && !foundLocal {
		return base, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it walks up from the working directory
// until the filesystem root looking for `name`. It returns the path of the
// file that was used.
func ReadRecursively[T any](name string, base T) (T, string, error) {
	current, err := os.Getwd()
	if err != nil {
		return base, "", err
	}

	for {
		path := filepath.Join(current, name)
		config, err := ReadConfig(path, base)
		if err == nil {
			return config, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return base, "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return base, "", os.ErrNotExist
		}
		current = parent
	}
}
