package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fenwick-systems/missioncore/runtime"
)

// ExportFormat selects the serialization Export produces.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
	FormatCSV  ExportFormat = "csv"
)

var csvHeader = []string{"id", "timestamp", "event_type", "actor", "resource", "action", "outcome", "risk_level", "chain_hash"}

// Export serializes the records matching filter into format.
func (l *Log) Export(format ExportFormat, filter Filter) ([]byte, error) {
	records := l.Query(filter)
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, runtime.NewMissionError("audit.Export", runtime.KindAudit, "", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, runtime.NewMissionError("audit.Export", runtime.KindAudit, "", err)
		}
		return data, nil
	case FormatCSV:
		return exportCSV(records)
	default:
		return nil, runtime.NewMissionError("audit.Export", runtime.KindConfig, "",
			fmt.Errorf("unknown export format %q", format))
	}
}

func exportCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, runtime.NewMissionError("audit.Export", runtime.KindAudit, "", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			string(r.Kind),
			r.Actor,
			r.Resource,
			r.Action,
			string(r.Outcome),
			string(r.Risk),
			r.ChainHash,
		}
		if err := w.Write(row); err != nil {
			return nil, runtime.NewMissionError("audit.Export", runtime.KindAudit, "", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, runtime.NewMissionError("audit.Export", runtime.KindAudit, "", err)
	}
	return buf.Bytes(), nil
}
