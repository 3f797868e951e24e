package Robot

const (
	MapWidth  = 100
	MapHeight = 50
	MapScale  = 10
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FloorMap converts floor coordinates to screen pixels. Floor Y grows up,
// screen Y grows down.
type FloorMap struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

func DefaultFloorMap() FloorMap {
	return FloorMap{Width: MapWidth, Height: MapHeight, Scale: MapScale}
}

func (m FloorMap) PixelSize() (float64, float64) {
	return m.Width * m.Scale, m.Height * m.Scale
}

func (m FloorMap) ToPixels(p Point) Point {
	return Point{X: p.X * m.Scale, Y: (m.Height - p.Y) * m.Scale}
}

func (m FloorMap) Contains(p Point) bool {
	return p.X >= 0 && p.X <= m.Width && p.Y >= 0 && p.Y <= m.Height
}

// MockPath is the route drawn behind the robot marker, ending at the
// placeholder position.
func MockPath() []Point {
	return []Point{
		{X: 10, Y: 40},
		{X: 20, Y: 35},
		{X: 30, Y: 30},
		{X: 40, Y: 25},
		{X: 43.3, Y: 18},
	}
}
