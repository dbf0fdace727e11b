package service

import (
	"encoding/csv"
	"io"
	"time"

	"leadflow/internal/model"
)

// ExportFilename is the fixed download name for CSV snapshots.
const ExportFilename = "doterra_export.csv"

// exportHeaders is the fixed column order of CSV exports. Consumers re-import
// these files elsewhere, so the order is part of the contract.
var exportHeaders = []string{
	"id", "Name", "WhatsApp", "Cohort", "MessageVariant", "Stage", "ApprovalStatus",
	"SentAt", "DeliveredAt", "ReadAt", "RepliedAt", "InterestedAt", "ApprovedAt", "SoldAt",
	"Source", "Notes",
}

func timeField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WriteLeadsCSV writes a CSV snapshot of the leads with standard quoting.
func WriteLeadsCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}

	for _, l := range leads {
		record := []string{
			l.ID,
			l.Name,
			l.WhatsApp,
			l.Cohort,
			l.MessageVariant,
			string(l.Stage),
			string(l.ApprovalStatus),
			timeField(l.SentAt),
			timeField(l.DeliveredAt),
			timeField(l.ReadAt),
			timeField(l.RepliedAt),
			timeField(l.InterestedAt),
			timeField(l.ApprovedAt),
			timeField(l.SoldAt),
			string(l.Source),
			l.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
