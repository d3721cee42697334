// Package main is the entry point of StorefrontAdmin, the back office of the
// storefront web property. It serves the admin area behind signed session
// cookies, gates every mutation by permission and records it in the audit log.
//
// Usage:
//
//	storefront-admin seed  --config ./etc/
//	storefront-admin start --config ./etc/ [--dev]
package main
