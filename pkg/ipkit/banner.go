package ipkit

import (
	"github.com/zan8in/gologger"
)

var Version = "0.1.0"

func ShowBanner() {
	gologger.Print().Msgf("\n|||\tI P K I T\t|||\t%s\n\n", Version)
}
