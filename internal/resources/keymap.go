// Package resources locates the per-mode key-image bundles that back
// simulated key presses.
package resources

import (
	"os"
	"path/filepath"
	"strings"
)

// Key hand groups under the resource root.
const (
	GroupLeft  = "left"
	GroupRight = "right"
)

// aliasSuffix marks grouping aliases that are loadable but never picked for
// random key pulses.
const aliasSuffix = "_g"

// Key is one probed key-image resource.
type Key struct {
	ID    string
	Group string
	Path  string
	Alias bool
}

// candidateNames lists the key names probed per group. Only names whose PNG
// exists on disk make it into the keymap.
var candidateNames = map[string][]string{
	GroupLeft:  {"q", "w", "e", "r", "a", "s", "d", "f", "shift", "ctrl", "space", "wasd_g"},
	GroupRight: {"u", "i", "o", "p", "j", "k", "l", "enter", "up", "down", "left", "right", "arrows_g"},
}

// Keymap is the probed key-resource mapping for one mode's bundle.
type Keymap struct {
	root       string
	keys       map[string]Key
	background string
}

// Probe checks {root}/{group}/{key}.png existence for both hand groups and an
// optional background.png directly under the root. Missing files are simply
// absent from the map.
func Probe(root string) *Keymap {
	km := &Keymap{
		root: root,
		keys: make(map[string]Key),
	}

	for group, names := range candidateNames {
		for _, name := range names {
			p := filepath.Join(root, group, name+".png")
			if _, err := os.Stat(p); err != nil {
				continue
			}
			km.keys[name] = Key{
				ID:    name,
				Group: group,
				Path:  p,
				Alias: strings.HasSuffix(name, aliasSuffix),
			}
		}
	}

	bg := filepath.Join(root, "background.png")
	if _, err := os.Stat(bg); err == nil {
		km.background = bg
	}

	return km
}

// Root returns the probed resource root.
func (km *Keymap) Root() string {
	return km.root
}

// Lookup returns the key for an id.
func (km *Keymap) Lookup(id string) (Key, bool) {
	k, ok := km.keys[id]
	return k, ok
}

// Eligible returns the keys a random pulse may pick: everything except
// grouping aliases.
func (km *Keymap) Eligible() []Key {
	out := make([]Key, 0, len(km.keys))
	for _, k := range km.keys {
		if k.Alias {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Len returns the number of probed keys including aliases.
func (km *Keymap) Len() int {
	return len(km.keys)
}

// Background returns the optional background image path, "" when absent.
func (km *Keymap) Background() string {
	return km.background
}
