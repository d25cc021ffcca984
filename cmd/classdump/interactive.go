package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/classfile/classfile"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))
)

const listWidth = 32

// member is one row of the left-hand list: the class itself, the constant
// pool, a field or a method.
type member struct {
	label  string
	render func(r *renderer)
}

type interactiveModel struct {
	err      error
	cf       *classfile.ClassFile
	filename string
	members  []member
	detail   viewport.Model
	selected int
	width    int
	height   int
	ready    bool
}

type loadedMsg struct {
	err error
	cf  *classfile.ClassFile
}

func newInteractiveModel(filename string) *interactiveModel {
	return &interactiveModel{filename: filename}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *interactiveModel) loadClass() tea.Msg {
	cf, err := classfile.ReadFile(m.filename)
	return loadedMsg{cf: cf, err: err}
}

func buildMembers(cf *classfile.ClassFile) []member {
	members := []member{
		{label: "class " + javaName(cf.ThisClass), render: func(r *renderer) {
			r.line("version %d.%d  flags 0x%04x", cf.MajorVersion, cf.MinorVersion, cf.AccessFlags)
			if cf.SuperClass != "" {
				r.line("extends %s", javaName(cf.SuperClass))
			}
			for _, iface := range cf.Interfaces {
				r.line("implements %s", javaName(iface))
			}
			r.attributes(cf.Attributes)
		}},
		{label: "constant pool", render: func(r *renderer) { r.pool(cf.Pool) }},
	}
	for i := range cf.Fields {
		f := &cf.Fields[i]
		members = append(members, member{
			label: "field " + f.Name,
			render: func(r *renderer) {
				r.line("%s %s  flags 0x%04x", f.Name, f.Descriptor, f.AccessFlags)
				r.attributes(f.Attributes)
			},
		})
	}
	for i := range cf.Methods {
		meth := &cf.Methods[i]
		members = append(members, member{
			label: "method " + meth.Name + meth.Descriptor,
			render: func(r *renderer) {
				r.line("%s%s  flags 0x%04x", meth.Name, meth.Descriptor, meth.AccessFlags)
				r.attributes(meth.Attributes)
			},
		})
	}
	return members
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.members)-1 {
				m.selected++
				m.refresh()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w, h := m.detailSize()
		if !m.ready {
			m.detail = viewport.New(w, h)
			m.ready = true
		} else {
			m.detail.Width, m.detail.Height = w, h
		}
		m.refresh()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.cf = msg.cf
		m.members = buildMembers(msg.cf)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *interactiveModel) detailSize() (int, int) {
	w := m.width - listWidth - 4
	if w < 20 {
		w = 20
	}
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return w, h
}

func (m *interactiveModel) refresh() {
	if !m.ready || len(m.members) == 0 {
		return
	}
	var b strings.Builder
	r := &renderer{out: &b, st: newStyles()}
	m.members[m.selected].render(r)
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.cf == nil || !m.ready {
		return "Loading class..."
	}

	var list strings.Builder
	for i, mem := range m.members {
		label := mem.label
		if runes := []rune(label); len(runes) > listWidth-2 {
			label = string(runes[:listWidth-3]) + "…"
		}
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + label))
		} else {
			list.WriteString("  " + label)
		}
		list.WriteByte('\n')
	}

	_, h := m.detailSize()
	left := paneStyle.Width(listWidth).Height(h).Render(list.String())
	right := paneStyle.Render(m.detail.View())

	var b strings.Builder
	b.WriteString(newStyles().title.Render("classdump"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • pgup/pgdn scroll • q quit"))
	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
