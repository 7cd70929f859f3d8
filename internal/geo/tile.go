package geo

import (
	"strconv"
	"strings"
)

// TileURL expands a tile URL template. Supported placeholders are {x},
// {y}, {z}, {tms_y} and {s}. The subdomain for {s} is picked the way
// Leaflet does: (x + y) mod len(subdomains), so the same tile always
// resolves to the same host.
func TileURL(tpl, subdomains string, x, y, z int) string {
	r := []string{
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	}

	if strings.Contains(tpl, "{tms_y}") {
		maxCoord := (1 << z) - 1
		r = append(r, "{tms_y}", strconv.Itoa(maxCoord-y))
	}

	if subs := []rune(subdomains); len(subs) > 0 {
		i := (x + y) % len(subs)
		if i < 0 {
			i = -i
		}
		r = append(r, "{s}", string(subs[i]))
	}

	return strings.NewReplacer(r...).Replace(tpl)
}
