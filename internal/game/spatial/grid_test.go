package spatial

import (
	"sort"
	"testing"
)

func TestGridDimensions(t *testing.T) {
	tests := []struct {
		name           string
		w, h, cellSize float64
		cols, rows     int
	}{
		{"exact", 100, 50, 10, 10, 5},
		{"rounds up", 105, 51, 10, 11, 6},
		{"empty area", 0, 0, 10, 1, 1},
		{"bad cell size", 3, 2, 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows, _ := NewGrid(tt.w, tt.h, tt.cellSize, 0).Dimensions()
			if cols != tt.cols || rows != tt.rows {
				t.Errorf("Expected %dx%d, got %dx%d", tt.cols, tt.rows, cols, rows)
			}
		})
	}
}

func TestGridQueryRadius(t *testing.T) {
	g := NewGrid(100, 100, 10, 8)
	g.Insert(0, 5, 5)
	g.Insert(1, 15, 5)
	g.Insert(2, 55, 55)
	g.Insert(3, 95, 95)
	g.Insert(4, -40, 5)  // clamped into column 0
	g.Insert(5, 130, 95) // clamped into the last column

	tests := []struct {
		name   string
		x, y   float64
		radius float64
		want   []uint32
	}{
		{"top-left corner", 5, 5, 10, []uint32{0, 1, 4}},
		{"middle", 55, 55, 5, []uint32{2}},
		{"bottom-right corner", 99, 99, 1, []uint32{3, 5}},
		{"empty area", 35, 75, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]uint32(nil), g.QueryRadius(tt.x, tt.y, tt.radius)...)
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestGridClear(t *testing.T) {
	g := NewGrid(50, 50, 10, 4)
	for i := uint32(0); i < 10; i++ {
		g.Insert(i, float64(i*5), float64(i*5))
	}
	if g.Len() != 10 {
		t.Fatalf("Expected 10 entities, got %d", g.Len())
	}

	g.Clear()
	if g.Len() != 0 {
		t.Errorf("Expected empty grid after Clear, got %d", g.Len())
	}
	if got := g.QueryRadius(25, 25, 50); len(got) != 0 {
		t.Errorf("Expected no results after Clear, got %v", got)
	}
}
