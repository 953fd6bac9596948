//go:build !linux

package fileutil

func renameNoReplace(src, dst string) error {
	return renameChecked(src, dst)
}
