// Package shared holds helpers used across vcfo packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and fixtures for building financial records and CSV uploads.
// It must only be imported from _test.go files.
package shared
