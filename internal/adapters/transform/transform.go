// Package transform provides the pipeline steps that turn source assets into build output.
package transform

import (
	"path"
	"strings"
)

func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
