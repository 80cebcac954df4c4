// SPDX-License-Identifier: MPL-2.0

// Package fetch streams a remote artifact to disk so that the destination
// path either holds the complete download or does not exist at all.
//
// Bytes are written to "<name>.partial" next to the destination and renamed
// into place only after the body has been fully read and synced. Every
// failure path removes the partial file. Concurrent fetches of the same name
// are serialized through a "<name>.lock" file.
package fetch
