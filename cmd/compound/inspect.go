package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mgomes/compound/compound"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Show the host's lookup chain, its parts and where each operation resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0], opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInspection(set.Host))
			return nil
		},
	}
}

func renderInspection(h *compound.Host) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(h.String()) + "\n\n")
	b.WriteString(sectionStyle.Render("Ancestors") + "\n")
	b.WriteString(renderAncestors(h) + "\n\n")
	b.WriteString(sectionStyle.Render("Parts") + "\n")
	b.WriteString(renderParts(h) + "\n\n")
	b.WriteString(sectionStyle.Render("Resolution") + "\n")
	b.WriteString(renderResolution(h))
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accentColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(highlightColor).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func renderAncestors(h *compound.Host) string {
	native := nativeModules(h)
	t := newTable("#", "Module", "Role")
	for i, mod := range h.Ancestors() {
		role := "part"
		switch {
		case i == 0:
			role = "host"
		case native[mod]:
			role = "class"
		}
		t.Row(strconv.Itoa(i), mod.String(), role)
	}
	return t.String()
}

func renderParts(h *compound.Host) string {
	if h.Registry().Len() == 0 {
		return mutedStyle.Render("No modules attached")
	}
	t := newTable("Priority", "Module", "Public", "Private", "Includes")
	i := 0
	for mod := range h.Registry().Pairs() {
		var includes []string
		for _, inc := range mod.Ancestors()[1:] {
			includes = append(includes, inc.String())
		}
		t.Row(
			strconv.Itoa(i),
			mod.String(),
			strings.Join(mod.PublicOperations(), ", "),
			strings.Join(mod.PrivateOperations(), ", "),
			strings.Join(includes, ", "),
		)
		i++
	}
	return t.String()
}

func renderResolution(h *compound.Host) string {
	names := resolvableNames(h)
	if len(names) == 0 {
		return mutedStyle.Render("No operations")
	}
	native := nativeModules(h)
	t := newTable("Operation", "Defined by", "Via", "Shadows")
	for _, name := range names {
		method, err := h.Method(name)
		if err != nil {
			continue
		}
		via := "native"
		var shadows []string
		for mod, part := range h.Registry().Pairs() {
			if !mod.Exposes(name) {
				continue
			}
			if via == "native" && !native[method.Owner] {
				via = part.String()
				continue
			}
			shadows = append(shadows, mod.String())
		}
		t.Row(name, method.Owner.String(), via, strings.Join(shadows, ", "))
	}
	return t.String()
}

// nativeModules is the set of modules that make up the host's own behaviour.
func nativeModules(h *compound.Host) map[*compound.Module]bool {
	out := map[*compound.Module]bool{h.Ancestors()[0]: true}
	for _, mod := range h.Class().Ancestors() {
		out[mod] = true
	}
	return out
}

// resolvableNames lists every name a caller could invoke on h.
func resolvableNames(h *compound.Host) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		if h.RespondTo(name) {
			names = append(names, name)
		}
	}
	for _, name := range h.Operations() {
		add(name)
	}
	for mod := range h.Registry().Pairs() {
		for _, anc := range mod.Ancestors() {
			for _, name := range anc.PublicOperations() {
				add(name)
			}
		}
	}
	slices.Sort(names)
	return names
}
