package stages

import (
	"strconv"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

const (
	mergeLeft = "<"
	mergeUp   = "^"
)

// TableNormalizeStage resolves merged cells. A cell holding only "<" (or
// nothing, with ColspanWithEmpty) extends its left neighbour; a cell holding
// only "^" extends the cell above. Header and body are separate grids.
type TableNormalizeStage struct {
	info
	ColspanWithEmpty bool
}

// NewTableNormalize returns the table normalization stage.
func NewTableNormalize(colspanWithEmpty bool) *TableNormalizeStage {
	return &TableNormalizeStage{
		info: preInfo(NameTableNormalize, pipeline.Dependencies{
			Provides: []pipeline.Capability{pipeline.CapTablesNormalized},
		}),
		ColspanWithEmpty: colspanWithEmpty,
	}
}

func (s *TableNormalizeStage) Config() map[string]any {
	return map[string]any{"colspanWithEmpty": s.ColspanWithEmpty}
}

func (s *TableNormalizeStage) TransformSource(doc *pipeline.Document) error {
	for _, t := range findTables(doc.SourceTree) {
		var header, body [][]*east.TableCell
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			switch row := c.(type) {
			case *east.TableHeader:
				header = append(header, cells(row))
			case *east.TableRow:
				body = append(body, cells(row))
			}
		}
		loc := doc.Locator()
		if err := s.normalize(header, doc.Source, loc); err != nil {
			return err
		}
		if err := s.normalize(body, doc.Source, loc); err != nil {
			return err
		}
	}
	return nil
}

type spanOwner struct {
	cell             *east.TableCell
	row, col         int
	colspan, rowspan int
}

func (s *TableNormalizeStage) normalize(rows [][]*east.TableCell, source []byte, loc markdown.Locator) error {
	grid := make([][]*spanOwner, len(rows))
	var owners []*spanOwner
	var merged []*east.TableCell
	for r, row := range rows {
		grid[r] = make([]*spanOwner, len(row))
		for c, cell := range row {
			content := strings.TrimSpace(markdown.PlainText(cell, source))
			switch {
			case content == mergeLeft || (content == "" && s.ColspanWithEmpty && c > 0):
				if c == 0 {
					return pipeline.Errorf(loc.Of(cell), "merge-left marker %q in the first column", mergeLeft)
				}
				left := grid[r][c-1]
				if left.row != r {
					grid[r][c] = literal(cell, r, c)
					owners = append(owners, grid[r][c])
					continue
				}
				left.colspan++
				grid[r][c] = left
				merged = append(merged, cell)
			case content == mergeUp:
				if r == 0 {
					return pipeline.Errorf(loc.Of(cell), "merge-up marker %q in the first row", mergeUp)
				}
				var above *spanOwner
				if c < len(grid[r-1]) {
					above = grid[r-1][c]
				}
				if above == nil || above.col != c || above.colspan != 1 {
					grid[r][c] = literal(cell, r, c)
					owners = append(owners, grid[r][c])
					continue
				}
				above.rowspan++
				grid[r][c] = above
				merged = append(merged, cell)
			default:
				grid[r][c] = literal(cell, r, c)
				owners = append(owners, grid[r][c])
			}
		}
	}

	for _, o := range owners {
		if o.colspan > 1 {
			o.cell.SetAttributeString("colspan", []byte(strconv.Itoa(o.colspan)))
		}
		if o.rowspan > 1 {
			o.cell.SetAttributeString("rowspan", []byte(strconv.Itoa(o.rowspan)))
		}
	}
	for _, cell := range merged {
		cell.Parent().RemoveChild(cell.Parent(), cell)
	}
	return nil
}

func literal(cell *east.TableCell, r, c int) *spanOwner {
	return &spanOwner{cell: cell, row: r, col: c, colspan: 1, rowspan: 1}
}

func cells(row gast.Node) []*east.TableCell {
	var out []*east.TableCell
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if cell, ok := c.(*east.TableCell); ok {
			out = append(out, cell)
		}
	}
	return out
}

func findTables(root gast.Node) []*east.Table {
	var tables []*east.Table
	_ = gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if t, ok := n.(*east.Table); ok && entering {
			tables = append(tables, t)
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})
	return tables
}

// TableWrapStage wraps every table in a layout container.
type TableWrapStage struct {
	info
	Class string
}

// NewTableWrap returns the table wrapping stage.
func NewTableWrap(class string) *TableWrapStage {
	return &TableWrapStage{
		info: preInfo(NameTableWrap, pipeline.Dependencies{
			Requires: []pipeline.Capability{pipeline.CapTablesNormalized},
		}),
		Class: class,
	}
}

func (s *TableWrapStage) Config() map[string]any {
	return map[string]any{"class": s.Class}
}

func (s *TableWrapStage) TransformSource(doc *pipeline.Document) error {
	for _, t := range findTables(doc.SourceTree) {
		parent := t.Parent()
		if parent.Kind() == markdown.KindTableWrapper {
			continue
		}
		wrapper := &markdown.TableWrapper{Class: s.Class}
		parent.ReplaceChild(parent, t, wrapper)
		wrapper.AppendChild(wrapper, t)
	}
	return nil
}
