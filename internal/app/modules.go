package app

import (
	"io"

	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/vk/nodegraph/modules/env_vars"
	"github.com/vk/nodegraph/modules/flow"
	"github.com/vk/nodegraph/modules/math"
	"github.com/vk/nodegraph/modules/strings"
	"github.com/vk/nodegraph/modules/value"
)

// CoreModules is the definitive list of all modules that are compiled into
// the nodegraph binary. flow.print writes to out.
func CoreModules(out io.Writer) []nodetype.Module {
	return []nodetype.Module{
		&math.Module{},
		&value.Module{},
		&strings.Module{},
		&flow.Module{Out: out},
		&env_vars.Module{},
	}
}
