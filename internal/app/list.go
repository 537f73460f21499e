package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/recipe"
	"go.trai.ch/gild/internal/ui/style"
)

// List validates the task graph and prints every task with its dependencies and outputs.
func (a *App) List(_ context.Context, opts Options, w io.Writer) error {
	p, err := a.load(opts)
	if err != nil {
		return err
	}

	graph, err := recipe.New(p.cfg, p.env, recipe.Deps{}).Graph()
	if err != nil {
		return err
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	names := graph.Names()
	slices.Sort(names)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("TASK", "DEPENDS ON", "OUTPUTS", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingRight(2)
			switch {
			case row == table.HeaderRow:
				return s.Bold(true)
			case col == 0:
				return s.Foreground(style.Gold)
			default:
				return s
			}
		})

	for _, name := range names {
		task, err := graph.GetTask(domain.NewInternedString(name))
		if err != nil {
			return err
		}
		description := task.Description
		if task.Service {
			description += " (service)"
		}
		t.Row(
			name,
			strings.Join(domain.Strings(task.Dependencies), ", "),
			strings.Join(domain.Strings(task.Outputs), ", "),
			description,
		)
	}

	_, err = fmt.Fprintf(w, "Environment %s writes to %s\n%s\n", p.env.Name, p.env.OutputDir, t.Render())
	return err
}
