package extract

import (
	"strings"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// LoadingWords are visible texts the app shows while a page is loading.
var LoadingWords = []string{"Loading", "Syncing", "Updating"}

// PageTitle returns the title of the page shown in the app window: the
// window title unless it is just the app name, else the first heading, else
// the first short static text.
func PageTitle(tree platform.Tree, app model.Node, appName string) string {
	if t := app.Label(); t != "" && !strings.EqualFold(t, appName) {
		return t
	}
	var heading, text string
	_ = platform.Walk(tree, app, 15, func(n model.Node, depth int) bool {
		c := n.Content()
		switch {
		case c == "":
		case n.Role == "heading" && heading == "":
			heading = c
		case n.Role == "txt" && text == "" && depth <= 10 && len(c) < 200:
			text = c
		}
		return heading == ""
	})
	if heading != "" {
		return heading
	}
	return text
}

// IsLoading reports whether any node within depth looks like a loading
// indicator.
func IsLoading(nodes []model.Node) bool {
	for _, n := range nodes {
		if n.Role == "progress" {
			return true
		}
		c := n.Content()
		for _, w := range LoadingWords {
			if strings.HasPrefix(c, w) && len(c) < len(w)+8 {
				return true
			}
		}
	}
	return false
}
