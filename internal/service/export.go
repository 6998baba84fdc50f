// export.go — экспорт changelist в CSV.
package service

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ncruces/go-strftime"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

// csvHeader — колонки экспорта в порядке changelist.
var csvHeader = []string{"Title", "Content Type", "Expiry Date", "Version State", "Version Author"}

// CSVExporter пишет строки changelist в CSV.
// Дата истечения форматируется strftime-шаблоном из конфигурации;
// запись без даты даёт пустую колонку.
type CSVExporter struct {
	dateFormat string
}

// NewCSVExporter создаёт экспортёр с заданным strftime-шаблоном даты.
func NewCSVExporter(dateFormat string) *CSVExporter {
	return &CSVExporter{dateFormat: dateFormat}
}

// Write пишет заголовок и строки в w.
// Пустой набор строк — валидный экспорт, только заголовок.
func (e *CSVExporter) Write(w io.Writer, rows []*model.ExpiryRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}

	for _, row := range rows {
		expires := ""
		if row.Expires != nil {
			expires = strftime.Format(e.dateFormat, *row.Expires)
		}
		record := []string{row.Title, row.ContentTypeLabel, expires, row.State, row.AuthorName}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
