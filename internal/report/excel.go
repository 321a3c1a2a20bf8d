// Package report renders persisted analysis results into a coaching report
// spreadsheet for QA managers.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/results"
)

const sheetName = "Analysis Results"

var headers = []string{
	"call_id", "evaluation_score", "strengths", "weaknesses", "improvements",
	"coaching_message", "agent_emotion_score", "customer_emotion_score",
	"efficiency_score", "manual_compliance_ratio", "final_score", "updated_at_utc",
}

// WriteExcel writes the rows to an .xlsx workbook at path, one result per
// row under a header line.
func WriteExcel(path string, rows []results.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
	}

	for i, r := range rows {
		values := []any{
			r.CallID, r.EvaluationScore, r.Strengths, r.Weaknesses,
			r.Improvements, r.CoachingMessage, r.AgentEmotionScore,
			r.CustomerEmotionScore, r.EfficiencyScore, r.ManualComplianceRatio,
			r.FinalScore, r.UpdatedAtUTC,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %s: %w", r.CallID, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
