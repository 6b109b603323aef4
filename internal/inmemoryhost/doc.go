// Package inmemoryhost provides an ephemeral, in-memory implementation of
// the host.Host and host.Node interfaces.
//
// # Purpose
//
// The in-memory host stands in for a live host application. It backs the
// capture/reconstruct tests and the CLI's offline commands, where a stash is
// rebuilt into memory to validate it without a running host.
//
// # Characteristics
//
//   - **Ephemeral:** the whole graph lives in memory and is discarded with the Host
//   - **Class-checked:** only classes declared with DefineClass can be created
//   - **Parameter-checked:** a node recognizes exactly the parameters its class declares
//   - **Independent slots:** connecting an input does not touch the source's outputs;
//     every slot is set explicitly
//
// # Concurrency Model
//
// A Host is not safe for concurrent use. The core drives one host from a
// single goroutine at a time.
package inmemoryhost
