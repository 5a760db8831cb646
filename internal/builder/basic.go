package builder

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const maxColumns = 12

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

func markdownComponent() *Component {
	return &Component{
		Name: "Markdown",
		Fields: []Field{
			{Name: "content", Kind: FieldTextarea},
			alignField(),
		},
		Defaults: Props{
			"content": "# Hello World\n\nWrite your **markdown** here!",
			"align":   "left",
		},
		Render: func(rc *RenderContext) (template.HTML, error) {
			body, err := RenderMarkdown(rc.Props.String("content"))
			if err != nil {
				return "", err
			}
			return executeBlock("markdown", struct {
				Align string
				HTML  template.HTML
			}{rc.Props.Align(), body}), nil
		},
	}
}

func columnsComponent() *Component {
	return &Component{
		Name: "Columns",
		Fields: []Field{
			{Name: "columns", Kind: FieldNumber},
			{Name: "gap", Kind: FieldNumber},
			alignField(),
		},
		Defaults: Props{"columns": 2, "gap": 20, "align": "left"},
		Render: func(rc *RenderContext) (template.HTML, error) {
			columns := rc.Props.Int("columns", 2)
			if columns < 1 {
				columns = 1
			}
			if columns > maxColumns {
				columns = maxColumns
			}
			gap := rc.Props.Int("gap", 20)
			if gap < 0 {
				gap = 0
			}

			cells := make([]template.HTML, columns)
			for i := range cells {
				cells[i] = rc.Zone("column-" + strconv.Itoa(i))
			}
			return executeBlock("columns", struct {
				Columns int
				Gap     int
				Align   string
				Cells   []template.HTML
			}{columns, gap, rc.Props.Align(), cells}), nil
		},
	}
}

func imageComponent() *Component {
	return &Component{
		Name: "ImageBlock",
		Fields: []Field{
			{Name: "src", Kind: FieldText},
			{Name: "alt", Kind: FieldText},
			{Name: "width", Kind: FieldNumber},
			{Name: "height", Kind: FieldNumber},
			alignField(),
		},
		Defaults: Props{
			"src":   "https://placehold.co/600x400",
			"alt":   "Placeholder image",
			"align": "left",
		},
		Render: func(rc *RenderContext) (template.HTML, error) {
			width := rc.Props.Int("width", 0)
			if width <= 0 {
				width = 400
			}
			height := rc.Props.Int("height", 0)
			if height <= 0 {
				height = 300
			}
			return executeBlock("image", struct {
				Src    string
				Alt    string
				Width  int
				Height int
				Align  string
			}{safeURL(rc.Props.String("src")), rc.Props.String("alt"), width, height, rc.Props.Align()}), nil
		},
	}
}

func buttonComponent() *Component {
	return &Component{
		Name: "Button",
		Fields: []Field{
			{Name: "text", Kind: FieldText},
			{Name: "href", Kind: FieldText},
			{Name: "textColor", Kind: FieldText},
			{Name: "backgroundColor", Kind: FieldText},
			alignField(),
		},
		Defaults: Props{
			"text":            "Click me",
			"href":            "#",
			"textColor":       "white",
			"backgroundColor": "#007bff",
			"align":           "left",
		},
		Render: func(rc *RenderContext) (template.HTML, error) {
			return executeBlock("button", struct {
				Text       string
				Href       string
				TextColor  string
				Background string
				Align      string
			}{
				rc.Props.String("text"),
				safeURL(rc.Props.String("href")),
				rc.Props.String("textColor"),
				rc.Props.String("backgroundColor"),
				rc.Props.Align(),
			}), nil
		},
	}
}
