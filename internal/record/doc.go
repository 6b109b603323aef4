// Package record defines the portable representation of a captured host
// graph: Node records, Port references and the stash file codec.
//
// A capture tree is an ordered slice of root *Node values. Records nest
// through Children; ports refer to other records by path. Records carry only
// JSON-representable data so a capture can be written to disk, committed,
// and later decoded on another machine.
package record
