// Package pyc knows how compiled Python files are named and laid out: it
// normalizes source paths, enumerates candidate bytecode filenames and reads
// the bytecode container header.
package pyc

import (
	"path"
	"strings"
)

// CacheDir is the directory CPython writes bytecode caches into.
const CacheDir = "__pycache__"

// DefaultVersions lists the runtime tags probed, oldest first.
var DefaultVersions = []string{"26", "27", "35", "36", "37"}

// DefaultExtensions lists the compiled-file extensions probed.
var DefaultExtensions = []string{"pyc", "pyd", "pyo"}

// SourceExtensions returns every extension stripped from a user-supplied
// path: the source extension plus the compiled ones.
func SourceExtensions(compiled []string) []string {
	return append([]string{"py"}, compiled...)
}

// StripExt removes a trailing ".ext" from p when ext is one of exts. The
// comparison is case-sensitive and only one extension is removed.
func StripExt(p string, exts []string) string {
	base := path.Base(p)
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return p
	}
	ext := base[dot+1:]
	for _, e := range exts {
		if e == ext {
			return p[:len(p)-len(ext)-1]
		}
	}
	return p
}

// Split separates a normalized path into its directory part (with trailing
// slash, possibly empty) and the base filename.
func Split(p string) (dir, name string) {
	return path.Split(p)
}

// GuessSet is the ordered candidate list for one base filename. The zero
// value yields nothing.
type GuessSet struct {
	Name       string
	Versions   []string
	Extensions []string
}

// NewGuessSet builds a GuessSet with the default versions and extensions.
func NewGuessSet(name string) GuessSet {
	return GuessSet{
		Name:       name,
		Versions:   DefaultVersions,
		Extensions: DefaultExtensions,
	}
}

// Len returns the number of candidates.
func (g GuessSet) Len() int {
	return 2 * len(g.Versions) * len(g.Extensions)
}

// Each calls fn for every candidate in order until fn returns false. The flat
// layout comes first, then the cache-directory layout; inside each block
// versions vary slowest.
func (g GuessSet) Each(fn func(candidate string) bool) {
	for _, prefix := range []string{"", CacheDir + "/"} {
		for _, ver := range g.Versions {
			for _, ext := range g.Extensions {
				if !fn(prefix + g.Name + ".cpython-" + ver + "." + ext) {
					return
				}
			}
		}
	}
}

// All materializes the candidates.
func (g GuessSet) All() []string {
	out := make([]string, 0, g.Len())
	g.Each(func(c string) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Guesses is shorthand for GuessSet{name, versions, exts}.All().
func Guesses(name string, versions, exts []string) []string {
	return GuessSet{Name: name, Versions: versions, Extensions: exts}.All()
}
