package templates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// Page renders the whole index page.
func Page(data PageData) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Data Sweeper</title><link rel="stylesheet" href="/static/style.css"></head><body>`)
		h.raw(`<header><h1>Data Sweeper</h1>`)
		h.raw(`<p>Convert CSV and Excel files, clean them and visualize numeric columns.</p></header><main>`)

		if data.Flash != nil {
			h.render(ErrorAlert(data.Flash.Message, data.Flash.Action, data.Flash.Code))
		}

		h.render(UploadForm(data.MaxFiles, data.MaxSize))

		if s := data.Session; s != nil {
			h.render(ConvertForm(s))
			if s.Result != nil {
				h.render(Results(s.Result))
			}
		}

		h.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders a user-facing error message with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		if code != "" {
			h.raw(` <code>`)
			h.text(code)
			h.raw(`</code>`)
		}
		h.raw(`</div>`)
	})
}

// UploadForm renders the multi-file upload form.
func UploadForm(maxFiles int, maxSize string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="card"><h2>Upload files</h2>`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="files" accept=".csv,.xlsx" multiple required>`)
		h.raw(`<button type="submit">Upload</button></form>`)
		h.rawf(`<p class="hint">Up to %d files, %s each.</p></section>`, maxFiles, templ.EscapeString(maxSize))
	})
}

// ConvertForm renders one card per uploaded file with its preview and
// conversion settings, followed by the convert and discard buttons.
func ConvertForm(s *SessionView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section><form method="post" action="/convert">`)
		for _, f := range s.Files {
			h.render(FileCard(f))
		}
		h.raw(`<div class="actions"><label><input type="checkbox" name="bundle" value="1"> Download all as ZIP</label>`)
		h.raw(`<button type="submit">Convert</button></div></form>`)
		h.raw(`<form method="post" action="/discard"><button type="submit" class="secondary">Discard files</button></form></section>`)
	})
}

// FileCard renders one uploaded file.
func FileCard(f FileView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<article class="card"><h3>`)
		h.text(f.Name)
		h.raw(`</h3><p class="meta">`)
		h.text(fmt.Sprintf("%s, %s", strings.ToUpper(string(f.Format)), f.SizeHuman))
		h.raw(`</p>`)

		if f.Error != nil {
			h.render(ErrorAlert(f.Error.Message, f.Error.Action, f.Error.Code))
		}
		if f.Preview != nil {
			h.render(PreviewTable(f.Preview))
		}

		cfg := core.FileConfig{OutputFormat: core.FormatCSV}
		if f.Format == core.FormatCSV {
			cfg.OutputFormat = core.FormatExcel
		}
		if f.Config != nil {
			cfg = *f.Config
		}

		i := strconv.Itoa(f.Index)
		h.raw(`<fieldset><legend>Cleaning</legend>`)
		checkbox(h, "dedupe_"+i, "Remove duplicates", cfg.Dedupe)
		checkbox(h, "fill_"+i, "Fill missing numbers with the column mean", cfg.FillMissingNumeric)
		checkbox(h, "dropna_"+i, "Drop rows with missing values", cfg.DropNullRows)
		h.raw(`</fieldset>`)

		if f.Preview != nil {
			h.raw(`<fieldset><legend>Columns</legend>`)
			selected := make(map[string]bool, len(cfg.Columns))
			for _, c := range cfg.Columns {
				selected[c] = true
			}
			for _, c := range f.Preview.Columns {
				checkbox(h, "columns_"+i, c, len(cfg.Columns) == 0 || selected[c], c)
			}
			h.raw(`</fieldset>`)
		}

		h.raw(`<fieldset><legend>Output</legend>`)
		checkbox(h, "chart_"+i, "Show chart", cfg.Chart)
		h.raw(`<label>Format <select`)
		h.attr("name", "format_"+i)
		h.raw(`>`)
		option(h, string(core.FormatCSV), "CSV", cfg.OutputFormat == core.FormatCSV)
		option(h, string(core.FormatExcel), "Excel", cfg.OutputFormat == core.FormatExcel)
		h.raw(`</select></label></fieldset></article>`)
	})
}

func checkbox(h *htmlWriter, name, label string, checked bool, value ...string) {
	v := "1"
	if len(value) > 0 {
		v = value[0]
	}
	h.raw(`<label><input type="checkbox"`)
	h.attr("name", name)
	h.attr("value", v)
	if checked {
		h.raw(` checked`)
	}
	h.raw(`> `)
	h.text(label)
	h.raw(`</label>`)
}

func option(h *htmlWriter, value, label string, selected bool) {
	h.raw(`<option`)
	h.attr("value", value)
	if selected {
		h.raw(` selected`)
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</option>`)
}

// PreviewTable renders the head of a table.
func PreviewTable(p *core.Preview) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="preview"><table><thead><tr>`)
		for i, c := range p.Columns {
			h.raw(`<th>`)
			h.text(c)
			if i < len(p.Types) {
				h.raw(`<small>`)
				h.text(p.Types[i])
				h.raw(`</small>`)
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			h.raw(`<tr>`)
			for _, v := range row {
				h.raw(`<td>`)
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.rawf(`</tbody></table><p class="hint">Showing %d of %d rows.</p></div>`, len(p.Rows), p.TotalRows)
	})
}

// Results renders the outcome of the last conversion.
func Results(r *ResultView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="card"><h2>Results</h2><p>`)
		h.text(fmt.Sprintf("%d converted, %d failed in %d ms.", r.Converted, r.Failed, r.DurationMs))
		h.raw(`</p>`)

		if r.BundleURL != "" {
			h.raw(`<p><a class="button"`)
			h.attr("href", r.BundleURL)
			h.raw(`>Download `)
			h.text(r.BundleName)
			h.raw(`</a></p>`)
		}
		if r.BundleError != nil {
			h.render(ErrorAlert(r.BundleError.Message, r.BundleError.Action, r.BundleError.Code))
		}

		for _, f := range r.Files {
			h.render(ResultCard(f))
		}
		h.raw(`</section>`)
	})
}

// ResultCard renders one converted file.
func ResultCard(f FileResultView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<article class="result"><h3>`)
		h.text(f.Source)
		h.raw(`</h3>`)

		if f.Error != nil {
			h.render(ErrorAlert(f.Source+": "+f.Error.Message, f.Error.Action, f.Error.Code))
			h.raw(`</article>`)
			return
		}

		if rep := f.Report; rep != nil {
			h.raw(`<ul class="report">`)
			if rep.DuplicatesRemoved > 0 {
				h.rawf(`<li>Removed %d duplicate rows</li>`, rep.DuplicatesRemoved)
			}
			for _, fc := range rep.Filled {
				h.raw(`<li>`)
				h.text(fmt.Sprintf("Filled %d missing values in %s with %s", fc.Cells, fc.Column, strconv.FormatFloat(fc.Mean, 'g', 6, 64)))
				h.raw(`</li>`)
			}
			if rep.NoNumericColumns {
				h.raw(`<li>No numeric columns to fill</li>`)
			}
			if rep.NullRowsRemoved > 0 {
				h.rawf(`<li>Dropped %d rows with missing values</li>`, rep.NullRowsRemoved)
			}
			h.raw(`</ul>`)
		}

		if f.Preview != nil {
			h.render(PreviewTable(f.Preview))
		}
		if f.Chart != nil {
			h.render(ChartSVG(f.Chart))
		}
		if f.ChartError != nil {
			h.raw(`<p class="hint">`)
			h.text(f.ChartError.Message)
			h.raw(`</p>`)
		}

		h.raw(`<p><a class="button"`)
		h.attr("href", f.DownloadURL)
		h.raw(` download>Download `)
		h.text(f.Output)
		h.raw(`</a></p></article>`)
	})
}
