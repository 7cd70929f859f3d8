package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileURL(t *testing.T) {
	const gaode = "https://webst0{s}.is.autonavi.com/appmaptile?style=6&x={x}&y={y}&z={z}"

	tests := []struct {
		name       string
		tpl        string
		subdomains string
		x, y, z    int
		want       string
	}{
		{
			name:       "subdomain from x+y",
			tpl:        gaode,
			subdomains: "1234",
			x:          3, y: 2, z: 4,
			want: "https://webst02.is.autonavi.com/appmaptile?style=6&x=3&y=2&z=4",
		},
		{
			name:       "subdomain wraps",
			tpl:        gaode,
			subdomains: "1234",
			x:          4, y: 4, z: 4,
			want: "https://webst01.is.autonavi.com/appmaptile?style=6&x=4&y=4&z=4",
		},
		{
			name: "no subdomains",
			tpl:  "/tiles/{z}/{x}/{y}.webp",
			x:    1, y: 2, z: 3,
			want: "/tiles/3/1/2.webp",
		},
		{
			name: "tms",
			tpl:  "/tms/{z}/{x}/{tms_y}.png",
			x:    0, y: 0, z: 2,
			want: "/tms/2/0/3.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TileURL(tt.tpl, tt.subdomains, tt.x, tt.y, tt.z))
		})
	}
}
