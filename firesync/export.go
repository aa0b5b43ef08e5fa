package firesync

import (
	"context"
	"fmt"
	"io"

	"github.com/Mihary-Mandresy/cloud-s5-back/models"
	"github.com/xuri/excelize/v2"
)

var statutLabels = map[int]string{
	models.StatutNouveau: "Nouveau",
	models.StatutEnCours: "En cours",
	models.StatutTermine: "Termine",
}

// ExportStatsExcel writes the per-status report statistics as a spreadsheet.
func ExportStatsExcel(ctx context.Context, w io.Writer) error {
	stats, err := models.GetSignalementStats(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheet := "Statistiques"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", "Statut")
	f.SetCellValue(sheet, "B1", "Nombre")
	f.SetCellValue(sheet, "C1", "Surface totale (m2)")
	f.SetCellValue(sheet, "D1", "Budget total")
	f.SetCellValue(sheet, "E1", "Avancement moyen (%)")

	for i, row := range stats {
		line := fmt.Sprint(i + 2)
		label := statutLabels[row.Statut]
		if label == "" {
			label = fmt.Sprintf("Statut %d", row.Statut)
		}
		f.SetCellValue(sheet, "A"+line, label)
		f.SetCellValue(sheet, "B"+line, row.Nombre)
		f.SetCellValue(sheet, "C"+line, row.SurfaceM2.InexactFloat64())
		f.SetCellValue(sheet, "D"+line, row.BudgetTotal.InexactFloat64())
		f.SetCellValue(sheet, "E"+line, row.Avancement)
	}

	return f.Write(w)
}
