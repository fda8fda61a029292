package pdfs

// PtPerPx - CSS pixels are 1/96", points are 1/72"
const PtPerPx = 72.0 / 96.0

// PtFromPx converts a logical canvas length to points.
func PtFromPx(px float64) float64 { return px * PtPerPx }
