// Package report prints build results and build history for people.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/eventstore"
)

const (
	green   = "#A9DC76"
	red     = "#FF6188"
	orange  = "#FC9867"
	magenta = "#AB9DF2"
	comment = "#727072"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	dim     lipgloss.Style
}

// Printer renders reports to one writer. Colors follow the writer's terminal
// capabilities, so redirected output is plain text.
type Printer struct {
	out io.Writer
	s   styles
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out: w,
		s: styles{
			title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(magenta)),
			label:   r.NewStyle().Width(14),
			success: r.NewStyle().Foreground(lipgloss.Color(green)),
			failure: r.NewStyle().Foreground(lipgloss.Color(red)),
			warning: r.NewStyle().Foreground(lipgloss.Color(orange)),
			dim:     r.NewStyle().Foreground(lipgloss.Color(comment)),
		},
	}
}

func (p *Printer) status(ok bool, text string) string {
	if ok {
		return p.s.success.Render(text)
	}
	return p.s.failure.Render(text)
}

// Build prints the summary of a build followed by every reported problem.
func (p *Printer) Build(res *build.BuildResult, verb string) {
	t := res.Totals()
	lines := []string{
		p.s.title.Render("folio "+verb) + " " +
			p.status(res.Status.IsSuccess(), string(res.Status)) + " " +
			p.s.dim.Render(fmt.Sprintf("%s in %s", res.BuildID, round(res.Duration))),
	}
	for _, c := range res.Collections {
		counts := fmt.Sprintf("%d entries, %d rendered", len(c.Entries), c.Rendered)
		if c.Drafts > 0 {
			counts += fmt.Sprintf(", %d drafts", c.Drafts)
		}
		if n := len(c.Problems) + len(c.Failures); n > 0 || c.Fatal != nil {
			counts += ", " + p.s.failure.Render(fmt.Sprintf("%d problems", n+boolInt(c.Fatal != nil)))
		}
		lines = append(lines, "  "+p.s.label.Render(c.Name)+counts)
	}

	if t.HasProblems() {
		lines = append(lines, "", p.s.title.Render("Problems"))
		for _, c := range res.Collections {
			if c.Fatal != nil {
				lines = append(lines, p.item(true, c.Name, c.Fatal.Error()))
			}
			for _, pr := range c.Problems {
				lines = append(lines, p.item(true, entryLabel(c.Name, pr.ID, pr.Path), ""))
				if fe := pr.FieldErrors(); len(fe) > 0 {
					for _, e := range fe {
						lines = append(lines, "      "+e.Error())
					}
					continue
				}
				lines = append(lines, "      "+pr.Err.Error())
			}
			for _, f := range c.Failures {
				lines = append(lines, p.item(true, entryLabel(f.Collection, f.ID, f.Path), ""), "      "+f.Err.Error())
			}
		}
	}

	if t.Warnings > 0 {
		lines = append(lines, "", p.s.title.Render("Warnings"))
		for _, c := range res.Collections {
			for _, w := range c.Warnings {
				lines = append(lines, p.item(false, c.Name, w.Error()))
			}
		}
	}

	fmt.Fprintln(p.out, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (p *Printer) item(failure bool, label, detail string) string {
	mark := p.s.warning.Render("  ! ")
	if failure {
		mark = p.s.failure.Render("  ✗ ")
	}
	if detail == "" {
		return mark + label
	}
	return mark + label + ": " + detail
}

// History prints completed builds, newest first.
func (p *Printer) History(builds []eventstore.BuildSummary) {
	if len(builds) == 0 {
		fmt.Fprintln(p.out, p.s.dim.Render("No builds recorded."))
		return
	}
	lines := []string{p.s.title.Render("Build history")}
	for _, b := range builds {
		line := fmt.Sprintf("  %s  %s  %s  %d entries, %d rendered, %d rejected, %d failed",
			b.StartedAt.Format(time.DateTime),
			p.status(b.Status == eventstore.StatusSucceeded, fmt.Sprintf("%-9s", b.Status)),
			p.s.dim.Render(b.BuildID),
			b.Entries, b.Rendered, b.Rejected, b.Failed)
		lines = append(lines, line)
		if b.FirstFailure != "" {
			lines = append(lines, "      "+p.s.failure.Render(b.FirstFailure))
		}
	}
	fmt.Fprintln(p.out, strings.Join(lines, "\n"))
}

func entryLabel(collection, id, path string) string {
	if id == "" {
		return collection + " (" + path + ")"
	}
	return collection + "/" + id + " (" + path + ")"
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(10 * time.Millisecond)
	}
	return d.Round(time.Microsecond)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
