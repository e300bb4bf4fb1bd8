package cmn

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

/*
WalkSource calls cb for every file under sourcePath (or sourcePath itself)
whose name ends with one of exts. Files are visited in lexical order,
directories depth first. Empty files are an error.
*/
func WalkSource(
	sourcePath string,
	exts []string,
	cb func(path string, fc []byte) error,
) error {
	fi, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	if fi.IsDir() {
		di, err := ioutil.ReadDir(sourcePath)
		if err != nil {
			return err
		}
		sort.Slice(di, func(i, j int) bool { return di[i].Name() < di[j].Name() })
		for _, fi = range di {
			p := filepath.Join(sourcePath, fi.Name())
			if !fi.IsDir() && !HasExt(p, exts) {
				continue
			}
			if err = WalkSource(p, exts, cb); err != nil {
				return err
			}
		}
		return nil
	}

	fc, err := ioutil.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	if len(fc) == 0 {
		return fmt.Errorf("%s - empty file content", sourcePath)
	}
	return cb(sourcePath, fc)
}

// HasExt reports whether p ends with any of exts. No exts matches everything.
func HasExt(p string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(p, e) {
			return true
		}
	}
	return false
}
