package app

import (
	"io"

	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/registry"
	"github.com/vk/usbq/modules/generator"
	"github.com/vk/usbq/modules/print"
	"github.com/vk/usbq/modules/socketio"
)

// Module is a code unit compiled into the binary: it provides factories to
// the catalog and declares the plugins built from them.
type Module interface {
	loader.Module
	registry.Declarer
}

// coreModules is the definitive list of all modules that are compiled into
// the usbq binary.
func coreModules(outW io.Writer) []Module {
	return []Module{
		&print.Module{Out: outW},
		&generator.Module{},
		&socketio.Module{},
	}
}
