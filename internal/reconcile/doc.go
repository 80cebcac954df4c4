// SPDX-License-Identifier: MPL-2.0

// Package reconcile merges each tool's installed version with the latest
// version published to the registry.
//
// For every requested tool the local lookup and the registry lookup run
// concurrently. Results come back in request order; a tool that cannot be
// found or whose registry lookup fails is reported with the missing piece
// left nil rather than failing the whole call.
package reconcile
