// SPDX-License-Identifier: MPL-2.0

// Package trust decides whether a download URL may be fetched at all.
//
// A URL is authorized when it is absolute, uses http or https, and its
// hostname ends with one of the configured suffixes. The check is pure: it
// never touches the network, so an untrusted link is rejected before any
// connection is attempted.
package trust
