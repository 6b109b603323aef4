/*
Package nodeid provides a structured representation for host node paths.

A path is a slash-separated sequence of node names rooted at "/", e.g.
`/project1/geo1/noise1`. The root itself is "/". The path is the canonical
identity of a captured node and the target of every port reference, so all
parsing and joining of paths goes through this package.
*/
package nodeid
