package config

import (
	"maps"
	"slices"
	"strings"
)

// Known print heads. Width is in dots; 8 dots per mm at 203 DPI.
type Profile struct {
	Width int
}

var profiles = map[string]Profile{
	"default": {Width: 384},
	"mx05":    {Width: 384},
	"58mm":    {Width: 384},
	"80mm":    {Width: 576},
}

// Model names are case-insensitive.
func LookupProfile(model string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(model)]
	return p, ok
}

func ProfileNames() []string {
	return slices.Sorted(maps.Keys(profiles))
}
