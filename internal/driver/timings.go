package driver

import (
	"encoding/json"
	"fmt"

	"restruct/internal/diag"
	"restruct/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Module  string               `json:"module,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// TimingDiagnostic packs a timer report into an info diagnostic whose note
// carries the JSON form of the report.
func TimingDiagnostic(module string, report observ.Report) diag.Diagnostic {
	payload := timingPayload{Kind: "lower", Module: module, TotalMS: report.TotalMS, Phases: report.Phases}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if module != "" {
		msg = fmt.Sprintf("%s in %s", msg, module)
	}
	d := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  diag.FuncLocation(module),
	}
	if data, err := json.Marshal(payload); err == nil {
		d.Notes = append(d.Notes, diag.Note{Loc: d.Primary, Msg: string(data)})
	}
	return d
}
