// Package variant resolves which physical copy of a variant sheet is active
// for the host's current mode.
package variant

import (
	"sync/atomic"

	"github.com/arkilian/sheetblob/pkg/types"
)

// Mode is the host-defined operating mode, for example a match type.
type Mode int32

// ModeSource reports the host's current mode. It is queried on every access
// to a variant sheet and must be safe for concurrent use.
type ModeSource interface {
	CurrentMode() Mode
}

// ModeFunc adapts a function to ModeSource.
type ModeFunc func() Mode

// CurrentMode calls f.
func (f ModeFunc) CurrentMode() Mode {
	return f()
}

// Fixed is a ModeSource that always reports the same mode.
type Fixed Mode

// CurrentMode returns the fixed mode.
func (f Fixed) CurrentMode() Mode {
	return Mode(f)
}

// AtomicMode is a ModeSource the host can update at any time.
type AtomicMode struct {
	v atomic.Int32
}

// NewAtomicMode returns an AtomicMode starting at m.
func NewAtomicMode(m Mode) *AtomicMode {
	a := &AtomicMode{}
	a.v.Store(int32(m))
	return a
}

// Set changes the current mode.
func (a *AtomicMode) Set(m Mode) {
	a.v.Store(int32(m))
}

// CurrentMode returns the last mode set.
func (a *AtomicMode) CurrentMode() Mode {
	return Mode(a.v.Load())
}

// Selector maps host modes to config_type tags and picks sub-sheets.
// A zero Selector uses the mode value as the config_type.
type Selector struct {
	toConfig map[Mode]int32
	toHost   map[int32]Mode
}

// NewSelector returns a selector using modeMap to translate host modes into
// config_type tags. Modes missing from the map are used as-is.
func NewSelector(modeMap map[Mode]int32) *Selector {
	s := &Selector{
		toConfig: make(map[Mode]int32, len(modeMap)),
		toHost:   make(map[int32]Mode, len(modeMap)),
	}
	for m, ct := range modeMap {
		s.toConfig[m] = ct
		// Several modes may share a config_type; the smallest mode wins the
		// reverse mapping so HostMode is deterministic.
		if prev, ok := s.toHost[ct]; !ok || m < prev {
			s.toHost[ct] = m
		}
	}
	return s
}

// ConfigType returns the config_type tag for host mode m.
func (s *Selector) ConfigType(m Mode) int32 {
	if s != nil {
		if ct, ok := s.toConfig[m]; ok {
			return ct
		}
	}
	return int32(m)
}

// HostMode returns the host mode that maps to configType.
func (s *Selector) HostMode(configType int32) Mode {
	if s != nil {
		if m, ok := s.toHost[configType]; ok {
			return m
		}
	}
	return Mode(configType)
}

// Select returns the index of the active sub-sheet of sheet under mode m.
//
// A sheet with a single sub-sheet always resolves to it. Otherwise the
// sub-sheet tagged with m's config_type is chosen, falling back silently to
// the config_type 0 sub-sheet when none matches.
func (s *Selector) Select(sheet *types.Sheet, m Mode) int {
	if len(sheet.SubSheets) <= 1 {
		return 0
	}
	if i := sheet.SubSheetIndex(s.ConfigType(m)); i >= 0 {
		return i
	}
	if i := sheet.SubSheetIndex(0); i >= 0 {
		return i
	}
	// Unreachable for validated catalogs.
	return 0
}
