/*
Package rebuild recreates live host nodes from captured records.

Reconstruction runs in ordered phases over the whole batch:

 1. validate: every class name in the batch must be registered.
 2. create: nodes are created depth-first, roots under the target node and
    children under their freshly created parent, and positioned.
 3. connect: once every record has a live node, each node-kind port is wired
    to the node created from the referenced path or, failing that, to an
    existing host node at that path.
 4. apply parameters: each captured parameter is set on the node. Names the
    node does not recognise are skipped.

Connections are made only after all nodes exist, so forward references and
cycles between siblings resolve. Any failure destroys the roots created so
far before the error is returned.
*/
package rebuild
