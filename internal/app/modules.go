package app

import (
	"github.com/vk/compstash/internal/registry"
	"github.com/vk/compstash/modules/touchdesigner"
)

// coreModules is the definitive list of all class modules that are compiled
// into the compstash binary.
var coreModules = []registry.Module{
	&touchdesigner.Module{},
}
