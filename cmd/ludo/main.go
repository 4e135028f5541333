// ludo - command-line access to the Ludo movement engine
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "path":
		cmdPath(args)
	case "moves":
		cmdMoves(args)
	case "review":
		cmdReview(args)
	case "id":
		cmdID(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ludo - Ludo Movement Engine

Usage: ludo <command> [options]

Commands:
  path      Resolve the path of one piece for a die value
  moves     Rank the moves of the player to move
  review    Rate a played move
  id        Convert between snapshots and position IDs

Use "ludo <command> -h" for command-specific help.

Boards:
  A board is given either as a position ID (-p) with the colour to move
  (-turn), or as a JSON snapshot file (-snapshot, "-" for stdin).
  Wire positions: -1 yard, 1-52 ring, 100-104 home stretch, 105 finished.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// boardFlags are the flags shared by every command that reads a board.
type boardFlags struct {
	position *string
	turn     *string
	snapshot *string
	die      *int
}

func addBoardFlags(fs *flag.FlagSet) boardFlags {
	return boardFlags{
		position: fs.String("p", "", "Position ID"),
		turn:     fs.String("turn", "green", "Colour to move with -p"),
		snapshot: fs.String("snapshot", "", "Snapshot JSON file (- for stdin)"),
		die:      fs.Int("d", 0, "Die value 1-6 (overrides the snapshot)"),
	}
}

func (f boardFlags) load() (engine.Snapshot, error) {
	var s engine.Snapshot
	switch {
	case *f.snapshot != "":
		data, err := readInput(*f.snapshot)
		if err != nil {
			return s, err
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("invalid snapshot: %w", err)
		}
	case *f.position != "":
		var err error
		s, err = engine.SnapshotFromPositionID(*f.position)
		if err != nil {
			return s, fmt.Errorf("invalid position ID: %w", err)
		}
		c, err := engine.ParseColor(strings.ToLower(*f.turn))
		if err != nil {
			return s, err
		}
		idx := -1
		for i, pl := range s.Players {
			if pl.Color == c {
				idx = i
			}
		}
		if idx < 0 {
			return s, fmt.Errorf("%s is not seated", c)
		}
		s.CurrentPlayerIndex = idx
	default:
		return s, fmt.Errorf("position (-p) or snapshot (-snapshot) required")
	}

	if *f.die != 0 {
		if *f.die < engine.MinDie || *f.die > engine.MaxDie {
			return s, fmt.Errorf("die must be %d-%d", engine.MinDie, engine.MaxDie)
		}
		if s.DiceValue == nil || *s.DiceValue != *f.die {
			s.MovablePieces = nil
		}
		die := *f.die
		s.DiceValue = &die
	}
	return s, s.Validate()
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func cmdPath(args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	colorFlag := fs.String("color", "", "Piece colour (green, yellow, blue, red)")
	posFlag := fs.Int("pos", engine.WireHome, "Wire position of the piece")
	die := fs.Int("d", 0, "Die value 1-6")
	fs.Parse(args)

	if *colorFlag == "" || *die == 0 {
		fmt.Fprintln(os.Stderr, "Error: color and die required")
		fmt.Fprintln(os.Stderr, "Usage: ludo path -color <colour> -pos <position> -d <die>")
		os.Exit(1)
	}

	c, err := engine.ParseColor(strings.ToLower(*colorFlag))
	if err != nil {
		fail("%v", err)
	}
	pos, err := engine.PositionFromWire(*posFlag)
	if err != nil {
		fail("%v", err)
	}

	piece := engine.Piece{ID: engine.MakePieceID(c, 0), Color: c, Position: pos}
	path := engine.ResolvePath(piece, *die)
	if len(path) == 0 {
		fmt.Printf("%s at %s cannot move with %d\n", c, pos, *die)
		return
	}

	steps := make([]string, len(path))
	for i, p := range path {
		steps[i] = p.String()
	}
	fmt.Printf("Path: %s\n", strings.Join(steps, " -> "))
	if !engine.Legal(piece, *die) {
		fmt.Println("Illegal: overshoots the finish")
		return
	}
	dest := path[len(path)-1]
	fmt.Printf("Lands on %s (%s", dest, dest.State())
	if engine.IsSafe(dest) {
		fmt.Print(", safe")
	}
	fmt.Println(")")
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	bf := addBoardFlags(fs)
	numMoves := fs.Int("n", 4, "Number of moves to show")
	fs.Parse(args)

	s, err := bf.load()
	if err != nil {
		fail("%v", err)
	}

	e := engine.NewEngine(engine.EngineOptions{CacheSize: -1})
	analysis, err := e.Analyze(s)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Moves for %s with %d (position %s):\n", analysis.Color, analysis.Die, engine.PositionID(s))
	shown := 0
	for _, m := range analysis.Moves {
		if !m.Legal || shown == *numMoves {
			continue
		}
		shown++
		fmt.Printf("  %d. %-24s  Score: %+.1f%s\n", shown, formatMove(s, m), m.Score, moveNotes(m))
	}
	fmt.Printf("Mean score: %+.1f over %d legal moves\n", analysis.Mean, analysis.NumLegal)
}

func formatMove(s engine.Snapshot, m engine.ScoredMove) string {
	from := "?"
	if p, _, ok := s.Piece(m.Piece); ok {
		from = p.Position.String()
	}
	return fmt.Sprintf("piece %d %s/%s", m.Piece, from, m.Destination)
}

func moveNotes(m engine.ScoredMove) string {
	var notes []string
	if m.Interaction.Captured != nil {
		notes = append(notes, fmt.Sprintf("captures %d", *m.Interaction.Captured))
	}
	if m.Interaction.FormsBlockade {
		notes = append(notes, "blockade")
	}
	if m.Interaction.BreaksBlockade {
		notes = append(notes, "breaks blockade")
	}
	if m.Threatened {
		notes = append(notes, "threatened")
	}
	if len(notes) == 0 {
		return ""
	}
	return "  (" + strings.Join(notes, ", ") + ")"
}

func cmdReview(args []string) {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	bf := addBoardFlags(fs)
	played := fs.Int("piece", -1, "Piece that was moved")
	fs.Parse(args)

	if *played < 0 {
		fmt.Fprintln(os.Stderr, "Error: piece required")
		fmt.Fprintln(os.Stderr, "Usage: ludo review -p <positionID> -d <die> -piece <id>")
		os.Exit(1)
	}

	s, err := bf.load()
	if err != nil {
		fail("%v", err)
	}

	e := engine.NewEngine(engine.EngineOptions{CacheSize: -1})
	review, err := e.ReviewMove(s, engine.PieceID(*played))
	if err != nil {
		fail("%v", err)
	}

	skill := review.Skill.String()
	if abbr := review.Skill.Abbr(); abbr != "" {
		skill += " " + abbr
	}
	fmt.Printf("Played piece %d: %+.1f\n", review.Played, review.PlayedScore)
	fmt.Printf("Best piece %d:   %+.1f\n", review.Best, review.BestScore)
	fmt.Printf("Loss: %.1f  Rating: %s\n", review.ScoreLoss, skill)
	fmt.Println(review.Suggestion())
}

func cmdID(args []string) {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	snapshot := fs.String("snapshot", "", "Snapshot JSON file to encode (- for stdin)")
	decode := fs.String("decode", "", "Position ID to decode")
	fs.Parse(args)

	switch {
	case *snapshot != "":
		data, err := readInput(*snapshot)
		if err != nil {
			fail("%v", err)
		}
		var s engine.Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			fail("invalid snapshot: %v", err)
		}
		fmt.Println(engine.PositionID(s))
	case *decode != "":
		s, err := engine.SnapshotFromPositionID(*decode)
		if err != nil {
			fail("invalid position ID: %v", err)
		}
		for _, pl := range s.Players {
			cells := make([]string, len(pl.Pieces))
			for i, p := range pl.Pieces {
				cells[i] = p.Position.String()
			}
			fmt.Printf("%-7s %s\n", pl.Color, strings.Join(cells, " "))
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: snapshot or decode required")
		fmt.Fprintln(os.Stderr, "Usage: ludo id -snapshot <file> | -decode <positionID>")
		os.Exit(1)
	}
}
