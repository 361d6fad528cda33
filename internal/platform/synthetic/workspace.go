package synthetic

import (
	"strings"
	"sync"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Page is one page of a synthetic workspace.
type Page struct {
	Title  string
	Lines  []string // text lines, top to bottom
	Images []string // painted-only text shown after the lines
	Rows   []string // collection rows; each opens the page of the same title

	Hidden     bool // not listed in the sidebar
	NeverLoads bool // stays on the loading view forever
}

// Workspace is a Notion-like app: a sidebar of pages, a scrollable content
// area, collection rows that open their own pages and a back shortcut.
type Workspace struct {
	App *App

	// LoadDelay is the number of Application reads a navigation shows the
	// loading view for.
	LoadDelay int

	mu      sync.Mutex
	pages   map[string]*Page
	order   []string
	history []string
	current string
}

// NewWorkspace opens start in a workspace holding pages.
func NewWorkspace(start string, pages ...*Page) *Workspace {
	w := &Workspace{pages: make(map[string]*Page)}
	for _, p := range pages {
		w.pages[p.Title] = p
		w.order = append(w.order, p.Title)
	}
	w.current = start
	w.App = New(w.render(start))
	w.App.OnKey = func(app *App, keys []string) {
		if strings.Join(keys, "+") == "cmd+[" {
			w.back()
		}
	}
	return w
}

// Current returns the title of the page being shown.
func (w *Workspace) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Workspace) page(title string) *Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pages[title]; ok {
		return p
	}
	p := &Page{Title: title, Lines: []string{title + " details"}, Hidden: true}
	w.pages[title] = p
	return p
}

func (w *Workspace) open(title string) {
	w.mu.Lock()
	w.history = append(w.history, w.current)
	prev := w.current
	w.current = title
	w.mu.Unlock()

	p := w.page(title)
	if w.LoadDelay <= 0 && !p.NeverLoads {
		w.App.SetRoot(w.render(title))
		return
	}
	w.App.SetRoot(w.loading(prev))
	if p.NeverLoads {
		return
	}
	w.App.After(w.LoadDelay, func(app *App) {
		if w.Current() == title {
			app.SetRoot(w.render(title))
		}
	})
}

func (w *Workspace) back() {
	w.mu.Lock()
	if len(w.history) == 0 {
		w.mu.Unlock()
		return
	}
	prev := w.history[len(w.history)-1]
	w.history = w.history[:len(w.history)-1]
	w.current = prev
	w.mu.Unlock()
	w.App.SetRoot(w.render(prev))
}

func (w *Workspace) sidebar() *Element {
	w.mu.Lock()
	titles := make([]string, 0, len(w.order))
	for _, t := range w.order {
		if !w.pages[t].Hidden {
			titles = append(titles, t)
		}
	}
	w.mu.Unlock()

	bar := Group(model.Bounds{X: 0, Y: 0, Width: 240, Height: 800})
	for i, t := range titles {
		title := t
		bar.Add(Link(model.Bounds{X: 10, Y: 40 + i*30, Width: 220, Height: 24}, title, func(*App) { w.open(title) }))
	}
	return bar
}

func (w *Workspace) window(title string, content ...*Element) *Element {
	area := ScrollArea(model.Bounds{X: 260, Y: 60, Width: 900, Height: 700}, content...)
	return Window(title, model.Bounds{X: 0, Y: 0, Width: 1200, Height: 800},
		w.sidebar(),
		Group(model.Bounds{X: 260, Y: 0, Width: 900, Height: 50}, Text(model.Bounds{X: 270, Y: 10, Width: 300, Height: 20}, title)),
		area,
	)
}

func (w *Workspace) loading(title string) *Element {
	return w.window(title,
		Progress(model.Bounds{X: 600, Y: 300, Width: 40, Height: 40}),
		Text(model.Bounds{X: 580, Y: 350, Width: 120, Height: 20}, "Loading…"),
	)
}

func (w *Workspace) render(title string) *Element {
	p := w.page(title)
	var content []*Element
	y := 80
	content = append(content, Heading(model.Bounds{X: 280, Y: y, Width: 600, Height: 40}, p.Title))
	y += 60
	for _, line := range p.Lines {
		content = append(content, Text(model.Bounds{X: 280, Y: y, Width: 800, Height: 24}, line))
		y += 60
	}
	for _, painted := range p.Images {
		content = append(content, Image(model.Bounds{X: 280, Y: y, Width: 400, Height: 120}, painted))
		y += 140
	}
	for _, r := range p.Rows {
		name := r
		cell := &Element{AXRole: "AXCell", Frame: model.Bounds{X: 290, Y: y + 4, Width: 400, Height: 24}, Value: name}
		content = append(content, Row(model.Bounds{X: 280, Y: y, Width: 860, Height: 32}, "", func(*App) { w.open(name) }, cell))
		y += 40
	}
	return w.window(p.Title, content...)
}
