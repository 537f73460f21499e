package browser

import "go.trai.ch/gild/internal/core/ports"

func NewOpenerWith(logger ports.Logger, interactive bool, launch func(string) error) *Opener {
	o := NewOpener(logger, interactive)
	o.launch = launch
	return o
}
