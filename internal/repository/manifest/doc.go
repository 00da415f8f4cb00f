// Package manifest persists the dependency-pinning file (requirements.txt).
//
// The manifest is UTF-8 text with one name==version entry per line. It is
// append-only: entries are added at the end, existing lines are never
// rewritten. A missing file is an empty manifest.
package manifest
