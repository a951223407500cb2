package chart

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/image/colornames"
)

// ParseColor resolves a CSS color as emitted by the census API: a named color
// ("darkred"), "#rgb", "#rrggbb", or "rgba(r, g, b, a)".
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, eris.New("chart: empty color")
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")") {
		return parseRGBA(s[len("rgba(") : len(s)-1])
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	return nil, eris.Errorf("chart: unknown color %q", s)
}

// mustColor parses s, falling back to gray for anything unparseable.
func mustColor(s string) color.Color {
	c, err := ParseColor(s)
	if err != nil {
		return colornames.Gray
	}
	return c
}

func parseHex(h string) (color.Color, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return nil, eris.Errorf("chart: bad hex color %q", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return nil, eris.Wrapf(err, "chart: bad hex color %q", h)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func parseRGBA(body string) (color.Color, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 4 {
		return nil, eris.Errorf("chart: bad rgba color %q", body)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return nil, eris.Errorf("chart: bad rgba channel %q", parts[i])
		}
		ch[i] = uint8(n)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil || a < 0 || a > 1 {
		return nil, eris.Errorf("chart: bad rgba alpha %q", parts[3])
	}

	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(a*255 + 0.5)}, nil
}

// lerpColor blends a toward b by t in [0,1].
func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
