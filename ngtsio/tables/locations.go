package tables

import (
	"path/filepath"
	"strings"
)

// Locations names the physical sources of one dataset. An empty string is the
// explicit absent marker: the engine skips that source instead of failing.
// Exactly one of Megafile (consolidated mode: every member lives in one bundle)
// or Nights (decomposed mode: catalogue, imagelist and measurements as separate
// members, secondary products in their own bundles) must be set.
type Locations struct {
	Megafile        string
	Nights          string
	Sysrem          string
	SysremImagelist string
	BLS             string
	Decorr          string
	Dilution        string
	Canvas          string
}

// Consolidated reports whether every member lives in a single bundle.
func (l *Locations) Consolidated() bool { return l.Megafile != "" }

// Primary returns the bundle holding the catalogue and imagelist members.
func (l *Locations) Primary() string {
	if l.Consolidated() {
		return l.Megafile
	}
	return l.Nights
}

// StandardLocations resolves the conventional archive layout under root:
// one directory per pipeline stage, named <Stage>_<field>_<version>. Sources
// whose directory does not exist stay absent. The "_DC" version suffix is an
// alias of the base version.
func StandardLocations(root, field, version string) *Locations {
	version = strings.TrimSuffix(version, "_DC")

	find := func(stage string) string {
		pattern := filepath.Join(root, stage+"*"+field+"*"+version+"*")
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			return ""
		}
		return matches[0]
	}

	loc := &Locations{
		Nights: find("MergePipe"),
		Sysrem: find("SysremPipe"),
		BLS:    find("BLSPipe"),
		Decorr: find("DecorrPipe"),
	}

	// Companion products have no pipeline directory convention; they are wired
	// in explicitly by the caller when present.
	return loc
}
