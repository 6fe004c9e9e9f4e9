package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// ResolveFile returns fn joined to the root of this module, so tests and tools can name bundled
// files such as "data/testwamcamera.env.xml" no matter which directory they run from.
func ResolveFile(fn string) string {
	//nolint:dogsled
	_, thisFile, _, _ := runtime.Caller(0)
	root, err := filepath.Abs(filepath.Join(filepath.Dir(thisFile), ".."))
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, fn)
}

// FindInDirs returns the first existing file named fn. Absolute names are checked as-is,
// relative names are tried against each directory in order.
func FindInDirs(fn string, dirs ...string) (string, error) {
	if filepath.IsAbs(fn) {
		if _, err := os.Stat(fn); err != nil {
			return "", err
		}
		return fn, nil
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, fn)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Wrapf(os.ErrNotExist, "%q not found in %v", fn, dirs)
}
