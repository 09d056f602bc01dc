package svg

import (
	"html/template"
	"io"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: sans-serif; margin: 2em; }
  .stack-step { font-family: monospace; padding: 2px 4px; }
  .stack-step.current { background: #ffeb3b; }
  #current-step { font-weight: bold; margin: 1em 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="current-step">{{.Indicator}}</div>
{{.SVG}}
{{.History}}
</body>
</html>
`))

// WritePage writes a self-contained HTML page holding the canvas contents.
func (c *Canvas) WritePage(w io.Writer, title string) error {
	c.mu.RLock()
	data := struct {
		Title     string
		Indicator string
		SVG       template.HTML
		History   template.HTML
	}{
		Title:     title,
		Indicator: c.indicator,
		SVG:       template.HTML(c.svg),     // produced by Render, labels escaped
		History:   template.HTML(c.history), // produced by HistoryHTML, lines escaped
	}
	c.mu.RUnlock()
	return pageTmpl.Execute(w, data)
}
