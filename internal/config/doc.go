// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface implemented by concrete
// formats such as HCL (see package hcl_adapter).
//
// A Model is produced by a Loader, checked by Validate and then consumed by
// the app package to build the token resolver, the class registry and the
// project.
package config
