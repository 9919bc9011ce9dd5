// Package shell implements the rtreectl command interpreter over an R-tree
// of string IDs and string payloads.
package shell

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	rtree "github.com/peterstace/dynrtree"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

type (
	tree   = rtree.RTree[string, string]
	record = rtree.Record[string, string]
)

// Config holds the collaborators of a Session. Only Out is required.
type Config struct {
	// Out receives command output.
	Out io.Writer
	// Log receives a debug line per executed command. Defaults to a no-op
	// logger.
	Log *zap.Logger
	// Level, when set, lets the set-log-level command change the log level.
	Level *zap.AtomicLevel
	// Color enables colored output.
	Color bool
	// NewID generates IDs for "insert -". Defaults to random UUIDs.
	NewID func() string
}

// Session executes commands against a tree. IDs are unique within a
// session, so a record can be deleted or updated by ID alone.
type Session struct {
	tree    *tree
	records map[string]record

	out   io.Writer
	log   *zap.Logger
	level *zap.AtomicLevel
	newID func() string

	idColor   *color.Color
	boxColor  *color.Color
	errColor  *color.Color
	infoColor *color.Color
}

// New creates a session over tr, which should be empty.
func New(tr *tree, cfg Config) *Session {
	s := &Session{
		tree:      tr,
		records:   make(map[string]record),
		out:       cfg.Out,
		log:       cfg.Log,
		level:     cfg.Level,
		newID:     cfg.NewID,
		idColor:   color.New(color.FgGreen, color.Bold),
		boxColor:  color.New(color.FgBlue),
		errColor:  color.New(color.FgRed),
		infoColor: color.New(color.FgYellow),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	for _, c := range []*color.Color{s.idColor, s.boxColor, s.errColor, s.infoColor} {
		if cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Exec runs a single command line. Blank lines and lines starting with '#'
// are ignored.
func (s *Session) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args := strings.Fields(line)
	cmd, args := strings.ToLower(args[0]), args[1:]
	s.log.Debug("exec", zap.String("command", cmd), zap.Strings("args", args))

	switch cmd {
	case "insert":
		return s.insert(args)
	case "update":
		return s.update(args)
	case "delete":
		return s.delete(args)
	case "window":
		return s.window(args)
	case "range":
		return s.rangeQuery(args)
	case "knn":
		return s.knn(args)
	case "stats":
		return s.stats(args)
	case "check":
		return s.check(args)
	case "set-log-level":
		return s.setLogLevel(args)
	case "help":
		s.usage()
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", cmd)
	}
}

// Run executes lines from lr until it's exhausted or a quit command is seen.
// If stopOnError is set, the first failing command ends the run and its
// error, annotated with the line number, is returned. Otherwise errors are
// reported to the output and the run continues.
func (s *Session) Run(lr LineReader, stopOnError bool) error {
	for n := 1; ; n++ {
		line, err := lr.Readline()
		if isEndOfInput(err) {
			return nil
		}
		if err != nil {
			return err
		}

		err = s.Exec(line)
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return nil
		case stopOnError:
			return fmt.Errorf("line %d: %w", n, err)
		default:
			s.errColor.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Session) usage() {
	io.WriteString(s.out, `
Available commands:
	insert <id|-> <minX> <minY> <maxX> <maxY> [payload...]
	update <id> <minX> <minY> <maxX> <maxY> [payload...]
	delete <id>
	window <minX> <minY> <maxX> <maxY>
	range <x> <y> <radius>
	knn <x> <y> <k>
	stats
	check
	set-log-level <level>
	help
	quit
`[1:])
}

func (s *Session) insert(args []string) error {
	if len(args) < 5 {
		return errors.New("usage: insert <id|-> <minX> <minY> <maxX> <maxY> [payload...]")
	}
	id := args[0]
	if id == "-" {
		id = s.newID()
	}
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("record %q already exists, use update to change it", id)
	}
	bb, err := parseBox(args[1:5])
	if err != nil {
		return err
	}

	rec := record{ID: id, BBox: bb, Payload: strings.Join(args[5:], " ")}
	s.tree.Insert(rec)
	s.records[id] = rec
	fmt.Fprintf(s.out, "inserted %s\n", s.idColor.Sprint(id))
	return nil
}

func (s *Session) update(args []string) error {
	if len(args) < 5 {
		return errors.New("usage: update <id> <minX> <minY> <maxX> <maxY> [payload...]")
	}
	id := args[0]
	old, ok := s.records[id]
	if !ok {
		return fmt.Errorf("no record %q", id)
	}
	bb, err := parseBox(args[1:5])
	if err != nil {
		return err
	}

	rec := record{ID: id, BBox: bb, Payload: strings.Join(args[5:], " ")}
	s.tree.Update(old, rec)
	s.records[id] = rec
	fmt.Fprintf(s.out, "updated %s\n", s.idColor.Sprint(id))
	return nil
}

func (s *Session) delete(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <id>")
	}
	id := args[0]
	rec, ok := s.records[id]
	if !ok || !s.tree.Delete(rec) {
		s.infoColor.Fprintf(s.out, "no record %s\n", id)
		return nil
	}
	delete(s.records, id)
	fmt.Fprintf(s.out, "deleted %s\n", s.idColor.Sprint(id))
	return nil
}

func (s *Session) window(args []string) error {
	if len(args) != 4 {
		return errors.New("usage: window <minX> <minY> <maxX> <maxY>")
	}
	bb, err := parseBox(args)
	if err != nil {
		return err
	}
	q := rtree.Window{MinX: bb.MinX, MinY: bb.MinY, MaxX: bb.MaxX, MaxY: bb.MaxY}
	s.printSorted(s.tree.Search(q))
	return nil
}

func (s *Session) rangeQuery(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: range <x> <y> <radius>")
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	if v[2] < 0 {
		return fmt.Errorf("radius must not be negative (got %s)", args[2])
	}
	s.printSorted(s.tree.Search(rtree.Range{CenterX: v[0], CenterY: v[1], Radius: v[2]}))
	return nil
}

func (s *Session) knn(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: knn <x> <y> <k>")
	}
	v, err := parseFloats(args[:2])
	if err != nil {
		return err
	}
	k, err := strconv.Atoi(args[2])
	if err != nil || k < 1 {
		return fmt.Errorf("k must be a positive integer (got %q)", args[2])
	}
	s.print(s.tree.Search(rtree.KNearest{X: v[0], Y: v[1], K: k}))
	return nil
}

func (s *Session) stats(args []string) error {
	if len(args) != 0 {
		return errors.New("usage: stats")
	}
	st := s.tree.Stats()
	fmt.Fprintf(s.out, "records=%d nodes=%d leaves=%d height=%d fill=%.2f\n",
		st.Records, st.Nodes, st.Leaves, st.Height, st.FillRatio)
	return nil
}

func (s *Session) check(args []string) error {
	if len(args) != 0 {
		return errors.New("usage: check")
	}
	if err := s.tree.Check(); err != nil {
		return err
	}
	if n := s.tree.Len(); n != len(s.records) {
		return fmt.Errorf("tree holds %d records, session holds %d", n, len(s.records))
	}
	fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *Session) setLogLevel(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: set-log-level <level>")
	}
	if s.level == nil {
		return errors.New("log level can't be changed in this session")
	}
	if err := s.level.UnmarshalText([]byte(args[0])); err != nil {
		return fmt.Errorf("invalid log level %q", args[0])
	}
	fmt.Fprintf(s.out, "log level set to %s\n", s.level.Level())
	return nil
}

// printSorted prints records ordered by ID, for queries whose result order
// isn't defined.
func (s *Session) printSorted(recs []record) {
	slices.SortFunc(recs, func(a, b record) int { return cmp.Compare(a.ID, b.ID) })
	s.print(recs)
}

func (s *Session) print(recs []record) {
	for _, rec := range recs {
		fmt.Fprintf(s.out, "%s %s", s.idColor.Sprint(rec.ID), s.boxColor.Sprint(rec.BBox))
		if rec.Payload != "" {
			fmt.Fprintf(s.out, " %s", rec.Payload)
		}
		fmt.Fprintln(s.out)
	}
	noun := "records"
	if len(recs) == 1 {
		noun = "record"
	}
	s.infoColor.Fprintf(s.out, "(%d %s)\n", len(recs), noun)
}

func parseBox(args []string) (rtree.BBox, error) {
	v, err := parseFloats(args)
	if err != nil {
		return rtree.BBox{}, err
	}
	return rtree.NewBBox(v[0], v[1], v[2], v[3])
}

func parseFloats(args []string) ([]float64, error) {
	v := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		v[i] = f
	}
	return v, nil
}
