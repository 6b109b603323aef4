package nodeid

// Separator joins the segments of a host node path.
const Separator = "/"

// Address is the structured representation of a host node path.
// The zero value is the root path "/".
type Address struct {
	Segments []string
}

// Root returns the address of the host root.
func Root() *Address {
	return &Address{}
}
