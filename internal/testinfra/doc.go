// Package testinfra holds helpers shared by tests across packages.
// Nothing outside _test.go files imports it.
package testinfra
