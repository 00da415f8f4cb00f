// Package sync reconciles installed Python packages with the manifest.
//
// For each requested package it branches on three facts — is it installed,
// does the request pin a version, is the entry already in the manifest — and
// performs one of four actions: nothing, append, reinstall then append, or
// install then append. The manifest is append-only, so older pins remain as
// history; membership checks keep its lines unique.
package sync
