package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func readLayer[T any](path string) (*T, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out T
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &out, nil
}

func localName(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + ".local" + ext
}

// ReadConfig reads a json5 configuration file. If a sibling
// "<name>.local.<ext>" file exists it is merged on top of the base file,
// so machine-specific overrides can stay out of version control.
// Returns os.ErrNotExist when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base, err := readLayer[T](name)
	if err != nil {
		return out, err
	}
	local, err := readLayer[T](localName(name))
	if err != nil {
		return out, err
	}

	if base == nil && local == nil {
		return out, os.ErrNotExist
	}
	if base != nil {
		out = *base
	}
	if local != nil {
		err = mergo.Merge(&out, *local, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merged local config overrides", "file", localName(name))
	}

	return out, nil
}

// ReadRecursively walks up from the working directory towards the
// filesystem root looking for a config file matching `name`.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}
