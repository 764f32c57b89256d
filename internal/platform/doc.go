package platform

// Package platform contains filesystem and external-site glue: artifact
// lookup and copying, filename sanitizing, platform detection from URLs,
// and YouTube playlist listing.
