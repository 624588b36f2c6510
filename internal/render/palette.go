package render

import (
	"image/color"
	"sync"
)

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// fnv1a32 is spelled out instead of going through hash/fnv so the colour
// formula stays a plain function of the name bytes.
func fnv1a32(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// ClassColor derives the box colour for a class name. Each channel is the
// FNV-1a hash of the name times a per-channel multiplier, mod 256.
func ClassColor(name string) color.RGBA {
	h := fnv1a32(name)
	return color.RGBA{
		R: uint8((h * 123) % 256),
		G: uint8((h * 147) % 256),
		B: uint8((h * 189) % 256),
		A: 0xff,
	}
}

// Palette remembers the colours handed out during a rendering pass.
type Palette struct {
	mu     sync.Mutex
	colors map[string]color.RGBA
}

func NewPalette() *Palette {
	return &Palette{colors: make(map[string]color.RGBA)}
}

// Color returns the colour for name, assigning it on first use.
func (p *Palette) Color(name string) color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.colors[name]; ok {
		return c
	}
	c := ClassColor(name)
	p.colors[name] = c
	return c
}

// Has reports whether name already has a colour.
func (p *Palette) Has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.colors[name]
	return ok
}

func (p *Palette) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.colors)
}
