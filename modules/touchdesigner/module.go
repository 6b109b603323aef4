// Package touchdesigner registers the operator classes of a TouchDesigner
// style host and the component classes whose children are captured.
package touchdesigner

import (
	"github.com/vk/compstash/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Recursable are the component classes that own a child network.
var Recursable = []string{
	"containerCOMP",
	"baseCOMP",
	"geometryCOMP",
	"lightCOMP",
}

// Classes lists the operator classes a stash may contain, grouped by family.
var Classes = map[string][]string{
	"COMP": {
		"baseCOMP", "cameraCOMP", "containerCOMP", "geometryCOMP",
		"lightCOMP", "replicatorCOMP", "selectCOMP", "windowCOMP",
	},
	"TOP": {
		"blurTOP", "compositeTOP", "constantTOP", "inTOP", "levelTOP",
		"moviefileinTOP", "noiseTOP", "nullTOP", "outTOP", "rampTOP",
		"renderTOP", "selectTOP", "transformTOP",
	},
	"CHOP": {
		"constantCHOP", "inCHOP", "lfoCHOP", "mathCHOP", "noiseCHOP",
		"nullCHOP", "outCHOP", "selectCHOP",
	},
	"SOP": {
		"boxSOP", "gridSOP", "inSOP", "nullSOP", "outSOP", "sphereSOP",
		"transformSOP",
	},
	"DAT": {
		"inDAT", "nullDAT", "outDAT", "scriptDAT", "tableDAT", "textDAT",
	},
	"MAT": {
		"constantMAT", "pbrMAT", "phongMAT",
	},
}

// Register registers every class and the default recursable set.
func (m *Module) Register(r *registry.Registry) {
	for _, family := range []string{"COMP", "TOP", "CHOP", "SOP", "DAT", "MAT"} {
		r.RegisterHostClasses(Classes[family]...)
	}
	r.MarkRecursable(Recursable...)
}
