// Package common - Types shared by the pipeline packages.
package common

import (
	"fmt"
	"image"
)

// Cell identifies one tile of a sprite sheet laid out on a fixed grid.
type Cell struct {
	// Index is the 1-based linear position of the cell, counted row by row.
	Index int
	// Row is the 0-based grid row.
	Row int
	// Col is the 0-based grid column.
	Col int
}

// CellAt converts a 1-based linear index into a cell on a grid with cols columns.
//
// Arguments:
//   - index: 1-based linear position.
//   - cols: Number of grid columns.
//
// Returns:
//   - The cell with its row and column derived from the index.
//
// @example
// cell := CellAt(6, 4) // Row 1, Col 1
func CellAt(index, cols int) Cell {
	if cols <= 0 {
		return Cell{Index: index}
	}
	return Cell{
		Index: index,
		Row:   (index - 1) / cols,
		Col:   (index - 1) % cols,
	}
}

// String formats the cell for log output.
func (c Cell) String() string {
	return fmt.Sprintf("cell %d (row %d, col %d)", c.Index, c.Row, c.Col)
}

// Rect returns the pixel rectangle of the cell for tiles of the given size,
// offset by origin (the bounds minimum of the sheet).
//
// @example
// r := CellAt(2, 4).Rect(image.Pt(0, 0), image.Pt(32, 32)) // (32,0)-(64,32)
func (c Cell) Rect(origin, tile image.Point) image.Rectangle {
	minX := origin.X + c.Col*tile.X
	minY := origin.Y + c.Row*tile.Y
	return image.Rect(minX, minY, minX+tile.X, minY+tile.Y)
}

// TileSize divides sheet bounds into rows x cols tiles using integer division,
// so trailing pixels that do not fill a whole tile are ignored.
func TileSize(sheet image.Rectangle, rows, cols int) image.Point {
	if rows <= 0 || cols <= 0 {
		return image.Point{}
	}
	return image.Pt(sheet.Dx()/cols, sheet.Dy()/rows)
}
