package processor

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type fileReport struct {
	Source    string   `json:"source"`
	Output    string   `json:"output,omitempty"`
	Format    string   `json:"format,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Status    string   `json:"status"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Message   string   `json:"message,omitempty"`
	Degraded  bool     `json:"metadata_degraded,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

type batchReport struct {
	BatchID          string       `json:"batch_id"`
	Total            int          `json:"total"`
	Succeeded        int          `json:"succeeded"`
	Failed           int          `json:"failed"`
	Cancelled        int          `json:"cancelled"`
	MetadataDegraded int          `json:"metadata_degraded"`
	Files            []fileReport `json:"files"`
}

// WriteReport writes the summary as indented JSON.
func WriteReport(w io.Writer, batchID string, s Summary) error {
	report := batchReport{
		BatchID:          batchID,
		Total:            s.Total,
		Succeeded:        s.Succeeded,
		Failed:           s.Failed,
		Cancelled:        s.Cancelled,
		MetadataDegraded: s.MetadataDegraded,
		Files:            make([]fileReport, 0, len(s.Results)),
	}

	for _, res := range s.Results {
		fr := fileReport{
			Source:   res.Path,
			Output:   res.Output,
			Width:    res.Width,
			Height:   res.Height,
			Status:   "ok",
			Degraded: res.MetadataDegraded,
			Notes:    res.Notes,
		}
		if res.Output != "" {
			fr.Format = res.Kind.String()
		}
		if !res.OK() {
			fr.Status = "failed"
			fr.ErrorKind = string(res.Err.Kind)
			fr.Message = res.Err.Err.Error()
		}
		report.Files = append(report.Files, fr)
	}

	data, err := jsonAPI.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
