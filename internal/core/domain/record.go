package domain

import "path"

// Record is a single file flowing through a pipeline.
// Steps never mutate a record in place; they return new ones.
type Record struct {
	// Path is slash-separated and relative to Base.
	Path string
	// Base is the directory Path is relative to. Generated records have no base.
	Base string
	// Contents holds the full file body.
	Contents []byte
}

// NewRecord creates a record with a cleaned path.
func NewRecord(base, p string, contents []byte) Record {
	return Record{
		Path:     path.Clean(p),
		Base:     base,
		Contents: contents,
	}
}

// WithContents returns a copy of the record carrying new contents.
func (r Record) WithContents(contents []byte) Record {
	return Record{Path: r.Path, Base: r.Base, Contents: contents}
}

// WithPath returns a copy of the record under a different path.
func (r Record) WithPath(p string) Record {
	return Record{Path: path.Clean(p), Base: r.Base, Contents: r.Contents}
}

// Ext returns the extension of the record path, including the dot.
func (r Record) Ext() string {
	return path.Ext(r.Path)
}

// Source returns the path the record was read from, for error reporting.
func (r Record) Source() string {
	if r.Base == "" {
		return r.Path
	}
	return path.Join(r.Base, r.Path)
}
