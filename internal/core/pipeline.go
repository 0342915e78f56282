package core

import "time"

// Process runs one file through parse, clean, select, chart and export. The
// first failing step stops this file only and is reported in FileResult.Err.
// A chart failure is reported in ChartErr and does not stop the export.
func Process(index int, file UploadedFile, cfg FileConfig, previewRows int) (res FileResult) {
	start := time.Now()
	res = FileResult{Index: index, Source: file.Name}
	defer func() { res.Duration = time.Since(start) }()

	table, err := Parse(file)
	if err != nil {
		res.Err = err
		return res
	}

	table, report, err := Clean(table, cfg.CleaningOptions())
	if err != nil {
		res.Err = err
		return res
	}
	res.Report = &report

	table, err = Select(table, cfg.Columns)
	if err != nil {
		res.Err = err
		return res
	}
	res.Preview = table.Preview(previewRows)

	if cfg.Chart {
		res.Chart, res.ChartErr = Chart(table)
	}

	artifact, err := Export(table, cfg.OutputFormat, file.Name)
	if err != nil {
		res.Err = err
		return res
	}
	res.Artifact = &artifact

	return res
}
