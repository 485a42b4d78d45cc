// Package topics adds file-backed help topics to a Cobra application.
// Topics are markdown documents compiled into the binary; `nxbuild
// help <topic>` renders them in the terminal, so the patch workflow
// documentation travels with the tool instead of living in a wiki.
package topics

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Topic is one help document.
type Topic struct {
	Name    string
	Content string
}

// Manager resolves help requests against the topic set before falling
// back to Cobra's own help.
type Manager struct {
	topics       map[string]*Topic
	renderer     Renderer
	originalHelp func(*cobra.Command, []string)
}

// New loads every .md file from docsFS into a Manager. The topic name
// is the file name without extension.
func New(docsFS fs.FS, renderer Renderer) (*Manager, error) {
	if renderer == nil {
		renderer = PlainRenderer{}
	}
	m := &Manager{
		topics:   make(map[string]*Topic),
		renderer: renderer,
	}

	err := fs.WalkDir(docsFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".md" {
			return err
		}
		content, err := fs.ReadFile(docsFS, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(p), ".md")
		m.topics[name] = &Topic{Name: name, Content: string(content)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading help topics: %w", err)
	}
	return m, nil
}

// Names returns all topic names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a topic by name.
func (m *Manager) Lookup(name string) (*Topic, bool) {
	t, ok := m.topics[name]
	return t, ok
}

// Install hooks the manager into root's help function. `help <topic>`
// renders the topic; anything else goes to the original help.
func (m *Manager) Install(root *cobra.Command) {
	m.originalHelp = root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			if topic, ok := m.Lookup(arg); ok {
				cmd.Print(m.renderer.Render(topic.Content))
				return
			}
		}
		m.originalHelp(cmd, args)
	})

	if len(m.topics) > 0 {
		root.Long = strings.TrimRight(root.Long, "\n") +
			"\n\nAdditional help topics:\n  " + strings.Join(m.Names(), "\n  ") + "\n"
	}
}
