package web

import (
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
)

func sessionView(sess *core.Session) *templates.SessionView {
	files := sess.Files()
	configs := sess.Configs()

	v := &templates.SessionView{
		ID:    sess.ID,
		Files: make([]templates.FileView, len(files)),
	}
	for i, f := range files {
		fv := templates.FileView{
			Index:     f.Index,
			Name:      f.File.Name,
			Format:    f.File.Format,
			Size:      f.File.Size(),
			SizeHuman: humanize.Bytes(uint64(f.File.Size())),
			Preview:   f.Preview,
			Error:     templates.NewErrorView(f.Err),
		}
		if i < len(configs) {
			cfg := configs[i]
			fv.Config = &cfg
		}
		v.Files[i] = fv
	}

	if res := sess.Result(); res != nil {
		v.Result = resultView(res)
	}
	return v
}

func resultView(res *core.ConvertResult) *templates.ResultView {
	v := &templates.ResultView{
		Converted:   res.Converted,
		Failed:      res.Failed,
		DurationMs:  res.Duration.Milliseconds(),
		Files:       make([]templates.FileResultView, len(res.Files)),
		BundleError: templates.NewErrorView(res.BundleErr),
	}
	if res.Bundle != nil {
		v.BundleName = res.BundleName
		v.BundleURL = "/api/bundle"
	}

	for i, f := range res.Files {
		fv := templates.FileResultView{
			Index:      f.Index,
			Source:     f.Source,
			Report:     f.Report,
			Preview:    f.Preview,
			Chart:      f.Chart,
			ChartError: templates.NewErrorView(f.ChartErr),
			Error:      templates.NewErrorView(f.Err),
			DurationMs: f.Duration.Milliseconds(),
		}
		if f.Artifact != nil {
			fv.Output = f.Artifact.Name
			fv.DownloadURL = "/api/download/" + url.PathEscape(f.Artifact.Name)
		}
		if f.Chart != nil {
			fv.ChartURL = "/api/chart/" + strconv.Itoa(f.Index)
		}
		v.Files[i] = fv
	}
	return v
}
