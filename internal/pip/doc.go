// Package pip shells out to a Python interpreter's pip module.
//
// It answers "which version of this package is installed?" via `pip show`
// and performs installs via `pip install`. Absence of a package is not an
// error; installer failures carry the tail of pip's stderr so the cause is
// visible without re-running the command.
package pip
