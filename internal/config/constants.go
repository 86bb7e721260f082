// Package config loads the optional per-script VM tuning file and defines
// the recognized Ember source file extensions.
package config

// Version is the current Ember version.
var Version = "0.1.0"

// SourceFileExt is the canonical Ember source extension.
const SourceFileExt = ".ember"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".ember", ".emb"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}
