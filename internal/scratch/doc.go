// Package scratch reclaims files left behind in the scratch directory.
//
// Downloads land in scratch_dir before the cache takes them over, and the
// request flow deletes them on every path it controls. A crash or kill can
// still strand a partial download; CleanStale removes anything older than a
// cutoff. Because a CLI fetch may share the directory with a running server,
// callers always pass an age rather than wiping the directory.
package scratch
