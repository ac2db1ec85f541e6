// Package storage owns the local side of a mirror target: reading the current
// content of a configured path, optionally creating its parent directory, and
// replacing it with fetched content. Writes go through a temp file in the same
// directory followed by rename, so an interrupted process never leaves a
// truncated target behind. Writers to the same path are serialised.
package storage
