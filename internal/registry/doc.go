// Package registry maps the class names found in capture records to the Go
// constructors that recreate them on a host.
//
// The registry is populated once at startup by modules (see the Module
// interface) and then only queried. A class name that was never registered
// is reported as a typed unknown-class error, with the closest registered
// name as a suggestion. The registry also owns the recursable class set:
// the classes whose children are captured and rebuilt.
package registry
