package builder

import (
	"bytes"
	"html/template"
	"log"
	"net/url"
	"strings"
)

var blockTemplates = template.Must(template.New("blocks").Parse(`
{{define "error"}}<div class="block block-error" role="alert">{{.}}</div>{{end}}
{{define "notice"}}<div class="block block-notice">{{.}}</div>{{end}}
{{define "markdown"}}<div class="block block-markdown" style="text-align: {{.Align}}">{{.HTML}}</div>{{end}}
{{define "columns"}}<div class="block block-columns" style="display: grid; grid-template-columns: repeat({{.Columns}}, 1fr); gap: {{.Gap}}px; text-align: {{.Align}}">{{range .Cells}}<div class="column-cell">{{.}}</div>{{end}}</div>{{end}}
{{define "image"}}<div class="block block-image" style="text-align: {{.Align}}"><img src="{{.Src}}" alt="{{.Alt}}" width="{{.Width}}" height="{{.Height}}" style="max-width: 100%; height: auto"></div>{{end}}
{{define "button"}}<div class="block block-button" style="text-align: {{.Align}}"><a class="page-button" href="{{.Href}}" style="color: {{.TextColor}}; background-color: {{.Background}}; border: 2px solid {{.Background}}">{{.Text}}</a></div>{{end}}
{{define "contract-view"}}<div class="block block-contract-view" style="text-align: {{.Align}}">
<div class="contract-card contract-card-view">
<h3>Contract View: {{.Function}}</h3>
<div class="contract-meta"><strong>Address:</strong> {{.Address}}</div>
{{if .Params}}<div class="contract-meta"><strong>Parameters:</strong> {{.Params}}</div>{{end}}
<a class="contract-call" href="{{.CallURL}}">Call {{.Function}}</a>
{{if .Called}}{{if .Error}}<div class="contract-result contract-result-error"><strong>✗ Error:</strong><div>{{.Error}}</div></div>{{else}}<div class="contract-result contract-result-ok"><strong>✓ Result:</strong>
{{if .Rows}}<table class="contract-table"><tbody>{{range .Rows}}<tr><th>{{.Name}}</th><td>{{.Value}}</td></tr>{{end}}</tbody></table>{{else}}<div>{{.Raw}}</div>{{end}}
</div>{{end}}{{end}}
</div>
</div>{{end}}
{{define "contract-write"}}<div class="block block-contract-write" style="text-align: {{.Align}}">
<div class="contract-card contract-card-write">
<h3>Contract Write Functions</h3>
<div class="contract-meta"><strong>Address:</strong> {{.Address}}</div>
{{if not .Functions}}<div class="contract-empty">No write functions found in ABI</div>{{end}}
{{range .Functions}}<form class="contract-function" method="post" action="{{$.Action}}">
<h5>{{.Name}}</h5>
<input type="hidden" name="abi" value="{{$.ABI}}">
<input type="hidden" name="function" value="{{.Name}}">
<input type="hidden" name="redirect" value="{{$.Redirect}}">
{{range .Inputs}}{{if eq .Widget "checkbox"}}<label class="contract-input"><input type="checkbox" name="{{.Field}}" value="true"> {{.Placeholder}}</label>
{{else if .Supported}}<input class="contract-input" type="text"{{if eq .Widget "number"}} inputmode="numeric"{{end}} name="{{.Field}}" placeholder="{{.Placeholder}}">
{{else}}<div class="contract-unsupported">{{.Placeholder}} is not supported</div>
{{end}}{{end}}
<input class="contract-input" type="password" name="passphrase" placeholder="Keystore passphrase" autocomplete="off">
<button type="submit"{{if not .Supported}} disabled{{end}}>Execute {{.Name}}</button>
{{with .Outcome}}<div class="contract-result {{if .OK}}contract-result-ok{{else}}contract-result-error{{end}}">{{if .OK}}✓ {{else}}✗ {{end}}{{.Message}}</div>{{end}}
</form>
{{end}}
</div>
</div>{{end}}
{{define "mego-event"}}<div class="block block-mego" style="text-align: {{.Align}}">
<div class="mego-card mego-align-{{.Align}}">
{{if .Image}}<div class="mego-image"><img src="{{.Image}}" alt="{{.Name}}"></div>{{end}}
<div class="mego-body">
<h2>{{.Name}}</h2>
{{if .Location}}<div class="mego-location">📍 {{.Location}}</div>{{end}}
{{if .Description}}<div class="mego-description">{{.Description}}</div>{{end}}
<div class="mego-stats">
{{if .Price}}<div class="mego-stat"><div class="mego-stat-label">PRICE</div><div class="mego-stat-value">{{.Price}}</div></div>{{end}}
<div class="mego-stat"><div class="mego-stat-label">MINTED</div><div class="mego-stat-value">{{.Minted}} / {{.Supply}}</div></div>
</div>
{{if .Dates}}<div class="mego-dates"><div class="mego-stat-label">EVENT DATE</div><div>{{.Dates}}</div></div>{{end}}
<a class="mego-buy" href="{{.TicketURL}}" target="_blank" rel="noopener noreferrer">🎫 Buy Tickets</a>
<div class="mego-footer"><div>Owner: {{.Owner}}</div><div>Event ID: {{.EventID}}</div></div>
</div>
</div>
</div>{{end}}
`))

func executeBlock(name string, data interface{}) template.HTML {
	var buf bytes.Buffer
	if err := blockTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[PAGE] execute block %s failed: %v", name, err)
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return template.HTML(buf.String())
}

// safeURL keeps http, https, relative and fragment links; anything else becomes "#".
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "#"
	}
	if strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return raw
	case "":
		if u.Host == "" && !strings.HasPrefix(raw, "//") {
			return raw
		}
	}
	return "#"
}
