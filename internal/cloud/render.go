package cloud

import (
	"fmt"
	"html/template"
	"io"
)

var svgTemplate = template.Must(template.New("cloud").Funcs(template.FuncMap{
	"px": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" class="tag-cloud" data-mode="{{.Mode}}" width="{{.Width}}" height="{{.Height}}">
<g transform="translate({{px .CenterX}},{{px .CenterY}})">
{{- range .Words}}
<a href="{{.Href}}"><text class="tag" data-count="{{.Count}}" data-amount="{{printf "%.2f" .Amount}}" font-size="{{px .Size}}" font-family="{{$.Font}}" fill="{{.Color}}" text-anchor="middle" dominant-baseline="central" transform="translate({{px .X}},{{px .Y}}) rotate({{.Rotate}})">{{.Name}}</text></a>
{{- end}}
</g>
</svg>
`))

// RenderSVG writes the cloud as an SVG fragment. Every word links to the
// expenditure search for its name.
func RenderSVG(w io.Writer, c Cloud) error {
	if err := svgTemplate.Execute(w, c); err != nil {
		return fmt.Errorf("render cloud: %w", err)
	}
	return nil
}
