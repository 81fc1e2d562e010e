// Package engine is the composition root. It turns a Config (loaded from the
// environment, a .env file, or YAML) into a ready Engine holding the
// completion client and the matching token counter. Nothing is kept in
// package-level state: callers construct an Engine and pass it, or its
// Completer, to whatever needs it.
package engine
