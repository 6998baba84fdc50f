package service

import (
	"strings"
	"testing"
	"time"

	"github.com/arturkryukov/cms-content-expiry/internal/domain/model"
)

func TestCSVExport_HeaderOnly(t *testing.T) {
	exporter := NewCSVExporter("%Y-%m-%d %H:%M")

	var buf strings.Builder
	if err := exporter.Write(&buf, nil); err != nil {
		t.Fatalf("Write() ошибка: %v", err)
	}

	got := strings.TrimRight(buf.String(), "\n")
	want := "Title,Content Type,Expiry Date,Version State,Version Author"
	if got != want {
		t.Errorf("Пустой экспорт:\n%q\nхотели:\n%q", got, want)
	}
}

func TestCSVExport_Rows(t *testing.T) {
	exporter := NewCSVExporter("%Y-%m-%d %H:%M")

	expires := time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC)
	rows := []*model.ExpiryRow{
		{
			ExpiryRecord:     model.ExpiryRecord{ID: 1, Expires: &expires},
			Title:            "Главная страница",
			ContentTypeLabel: "cms.pagecontent",
			State:            "published",
			AuthorName:       "Алиса",
		},
		{
			// Запись без даты — пустая колонка
			ExpiryRecord:     model.ExpiryRecord{ID: 2},
			Title:            "Черновик",
			ContentTypeLabel: "blog.post",
			State:            "draft",
			AuthorName:       "bob",
		},
	}

	var buf strings.Builder
	if err := exporter.Write(&buf, rows); err != nil {
		t.Fatalf("Write() ошибка: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Экспорт содержит %d строк, хотели 3", len(lines))
	}
	if lines[1] != "Главная страница,cms.pagecontent,2024-06-15 14:30,published,Алиса" {
		t.Errorf("Строка 1 = %q", lines[1])
	}
	if lines[2] != "Черновик,blog.post,,draft,bob" {
		t.Errorf("Строка 2 = %q", lines[2])
	}
}

func TestCSVExport_CustomDateFormat(t *testing.T) {
	exporter := NewCSVExporter("%d.%m.%Y")

	expires := time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC)
	rows := []*model.ExpiryRow{
		{
			ExpiryRecord:     model.ExpiryRecord{ID: 1, Expires: &expires},
			Title:            "Страница",
			ContentTypeLabel: "cms.pagecontent",
			State:            "published",
			AuthorName:       "Алиса",
		},
	}

	var buf strings.Builder
	if err := exporter.Write(&buf, rows); err != nil {
		t.Fatalf("Write() ошибка: %v", err)
	}

	if !strings.Contains(buf.String(), "15.06.2024") {
		t.Errorf("Экспорт не содержит дату в кастомном формате: %q", buf.String())
	}
}
