package engine

// Board dimensions.
const (
	RingSize          = 52 // shared ring cells, numbered 1..52
	HomeStretchLength = 6  // private lane per colour, last slot is the finish
	GridSize          = 15 // rendering grid is GridSize x GridSize
)

// Coord is a cell on the rendering grid. Row 0 is the top edge.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// startCells is the ring cell a piece enters on when it leaves the yard.
var startCells = [NumColors]int{
	Green:  1,
	Yellow: 14,
	Blue:   27,
	Red:    40,
}

// preHomeCells is the last ring cell before a colour turns into its stretch.
var preHomeCells = [NumColors]int{
	Green:  51,
	Yellow: 12,
	Blue:   25,
	Red:    38,
}

// safeCells holds the eight cells where no capture can happen: every start
// cell and the star eight cells after it.
var safeCells = map[int]struct{}{
	1: {}, 9: {}, 14: {}, 22: {}, 27: {}, 35: {}, 40: {}, 48: {},
}

// ringCoords[i] is the grid cell of ring cell i+1, walking clockwise from
// Green's start.
var ringCoords = [RingSize]Coord{
	{6, 1}, {6, 2}, {6, 3}, {6, 4}, {6, 5},
	{5, 6}, {4, 6}, {3, 6}, {2, 6}, {1, 6}, {0, 6},
	{0, 7},
	{0, 8},
	{1, 8}, {2, 8}, {3, 8}, {4, 8}, {5, 8},
	{6, 9}, {6, 10}, {6, 11}, {6, 12}, {6, 13}, {6, 14},
	{7, 14},
	{8, 14},
	{8, 13}, {8, 12}, {8, 11}, {8, 10}, {8, 9},
	{9, 8}, {10, 8}, {11, 8}, {12, 8}, {13, 8}, {14, 8},
	{14, 7},
	{14, 6},
	{13, 6}, {12, 6}, {11, 6}, {10, 6}, {9, 6},
	{8, 5}, {8, 4}, {8, 3}, {8, 2}, {8, 1}, {8, 0},
	{7, 0},
	{6, 0},
}

// stretchCoords is each colour's lane from the pre-home cell to the centre.
var stretchCoords = [NumColors][HomeStretchLength]Coord{
	Green:  {{7, 1}, {7, 2}, {7, 3}, {7, 4}, {7, 5}, {7, 6}},
	Yellow: {{1, 7}, {2, 7}, {3, 7}, {4, 7}, {5, 7}, {6, 7}},
	Blue:   {{7, 13}, {7, 12}, {7, 11}, {7, 10}, {7, 9}, {7, 8}},
	Red:    {{13, 7}, {12, 7}, {11, 7}, {10, 7}, {9, 7}, {8, 7}},
}

// yardCoords is the four slot cells in each colour's corner.
var yardCoords = [NumColors][PiecesPerPlayer]Coord{
	Green:  {{2, 2}, {2, 3}, {3, 2}, {3, 3}},
	Yellow: {{2, 11}, {2, 12}, {3, 11}, {3, 12}},
	Blue:   {{11, 11}, {11, 12}, {12, 11}, {12, 12}},
	Red:    {{11, 2}, {11, 3}, {12, 2}, {12, 3}},
}

// StartCell returns the ring cell where c enters the board.
func StartCell(c Color) int { return startCells[c] }

// PreHomeCell returns the ring cell after which c turns into its stretch.
func PreHomeCell(c Color) int { return preHomeCells[c] }

// IsSafeCell reports whether a ring cell is immune to capture.
func IsSafeCell(cell int) bool {
	_, ok := safeCells[cell]
	return ok
}

// SafeCells returns the safe ring cells in ascending order.
func SafeCells() []int {
	return []int{1, 9, 14, 22, 27, 35, 40, 48}
}

// IsSafe reports whether a position cannot be captured on. Only ring cells
// are ever capturable.
func IsSafe(p Position) bool {
	return !p.OnRing() || IsSafeCell(p.Cell())
}

// RingCoord returns the grid cell of a ring cell (1..52).
func RingCoord(cell int) Coord { return ringCoords[cell-1] }

// StretchCoord returns the grid cell of c's stretch index.
func StretchCoord(c Color, index int) Coord { return stretchCoords[c][index] }

// YardCoord returns the grid cell of c's yard slot.
func YardCoord(c Color, slot int) Coord { return yardCoords[c][slot] }

// PieceCoord returns where a piece is drawn.
func PieceCoord(p Piece) Coord {
	switch {
	case p.Position.IsHome():
		return YardCoord(p.Color, p.ID.Slot())
	case p.Position.OnRing():
		return RingCoord(p.Position.Cell())
	default:
		return StretchCoord(p.Color, p.Position.StretchIndex())
	}
}

// ringDistance is the number of forward steps from cell a to cell b.
func ringDistance(a, b int) int {
	return ((b-a)%RingSize + RingSize) % RingSize
}

// Progress returns the pips c has travelled to reach p: 0 on the start
// cell, 50 on the pre-home cell, 56 at the finish. Pieces at home are -1.
func Progress(c Color, p Position) int {
	switch {
	case p.IsHome():
		return -1
	case p.OnRing():
		return ringDistance(StartCell(c), p.Cell())
	default:
		return ringDistance(StartCell(c), PreHomeCell(c)) + 1 + p.StretchIndex()
	}
}
