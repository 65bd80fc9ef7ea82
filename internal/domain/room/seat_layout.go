package room

import (
	"fmt"
	"sort"
)

// SeatRowConfig は座席列1本分の設定値
type SeatRowConfig struct {
	RowNumber               int      `json:"row_number"`
	LastColumnLetter        string   `json:"last_column_letter"`
	PreferentialSeatLetters []string `json:"preferential_seat_letters"`
}

// SeatRow は座席列を表す
// 列の定員は最終列文字から導出する（A=1席, B=2席, ...）
type SeatRow struct {
	rowNumber    int
	lastColumn   rune
	preferential map[rune]bool
}

// RowNumber は列番号を返す
func (r SeatRow) RowNumber() int { return r.rowNumber }

// Capacity は列の席数を返す
func (r SeatRow) Capacity() int { return int(r.lastColumn-'A') + 1 }

// LastColumnLetter は最終座席の列文字を返す
func (r SeatRow) LastColumnLetter() string { return string(r.lastColumn) }

// HasColumn は指定の列文字の座席が存在するかを返す
func (r SeatRow) HasColumn(letter rune) bool {
	return letter >= 'A' && letter <= r.lastColumn
}

// IsPreferential は指定の座席が優先席かを返す
func (r SeatRow) IsPreferential(letter rune) bool {
	return r.preferential[letter]
}

// PreferentialSeatLetters は優先席の列文字一覧を昇順で返す
func (r SeatRow) PreferentialSeatLetters() []string {
	letters := make([]string, 0, len(r.preferential))
	for l := range r.preferential {
		letters = append(letters, string(l))
	}
	sort.Strings(letters)
	return letters
}

// SeatLayout は上映室の座席配置を表す（列番号 → 座席列）
// 生成後は一切変更されない
type SeatLayout struct {
	rows map[int]SeatRow
}

// NewSeatLayout は検証済みのSeatLayoutを作成する
// 列ごとの違反は打ち切らず全件収集して返す
func NewSeatLayout(configs []SeatRowConfig) (SeatLayout, Failures) {
	if len(configs) == 0 {
		return SeatLayout{}, failuresOf(CodeMissingRequiredData, map[string]any{"field": "seat_rows"})
	}

	var fs Failures
	rows := make(map[int]SeatRow, len(configs))
	for _, cfg := range configs {
		if _, exists := rows[cfg.RowNumber]; exists {
			fs = append(fs, NewFailure(CodeDuplicatedSeatRow, map[string]any{"row_number": cfg.RowNumber}))
			continue
		}
		row, rowFs := newSeatRow(cfg)
		if rowFs != nil {
			fs = append(fs, rowFs...)
			continue
		}
		rows[cfg.RowNumber] = row
	}
	if fs != nil {
		return SeatLayout{}, fs
	}
	return SeatLayout{rows: rows}, nil
}

func newSeatRow(cfg SeatRowConfig) (SeatRow, Failures) {
	var fs Failures
	if cfg.RowNumber < 1 {
		fs = append(fs, NewFailure(CodeInvalidSeatRow, map[string]any{"row_number": cfg.RowNumber}))
	}
	if len(cfg.LastColumnLetter) != 1 || cfg.LastColumnLetter[0] < 'A' || cfg.LastColumnLetter[0] > 'Z' {
		fs = append(fs, NewFailure(CodeInvalidSeatRow, map[string]any{
			"row_number":         cfg.RowNumber,
			"last_column_letter": cfg.LastColumnLetter,
		}))
		return SeatRow{}, fs
	}
	last := rune(cfg.LastColumnLetter[0])

	preferential := make(map[rune]bool, len(cfg.PreferentialSeatLetters))
	for _, letter := range cfg.PreferentialSeatLetters {
		if len(letter) != 1 || rune(letter[0]) < 'A' || rune(letter[0]) > last {
			fs = append(fs, NewFailure(CodeInvalidPreferentialSeat, map[string]any{
				"row_number": cfg.RowNumber,
				"seat":       letter,
			}))
			continue
		}
		preferential[rune(letter[0])] = true
	}
	if fs != nil {
		return SeatRow{}, fs
	}
	return SeatRow{rowNumber: cfg.RowNumber, lastColumn: last, preferential: preferential}, nil
}

// HydrateSeatLayout は永続化済みデータからSeatLayoutを復元する
func HydrateSeatLayout(configs []SeatRowConfig) (SeatLayout, error) {
	if len(configs) == 0 {
		return SeatLayout{}, fmt.Errorf("座席列が空です: %w", ErrCorruptedSeatLayout)
	}
	rows := make(map[int]SeatRow, len(configs))
	for _, cfg := range configs {
		if len(cfg.LastColumnLetter) != 1 {
			return SeatLayout{}, fmt.Errorf("最終列文字が不正です (row=%d): %w", cfg.RowNumber, ErrCorruptedSeatLayout)
		}
		preferential := make(map[rune]bool, len(cfg.PreferentialSeatLetters))
		for _, letter := range cfg.PreferentialSeatLetters {
			if len(letter) != 1 {
				return SeatLayout{}, fmt.Errorf("優先席の列文字が不正です (row=%d): %w", cfg.RowNumber, ErrCorruptedSeatLayout)
			}
			preferential[rune(letter[0])] = true
		}
		rows[cfg.RowNumber] = SeatRow{
			rowNumber:    cfg.RowNumber,
			lastColumn:   rune(cfg.LastColumnLetter[0]),
			preferential: preferential,
		}
	}
	return SeatLayout{rows: rows}, nil
}

// Row は指定番号の座席列を返す
func (l SeatLayout) Row(rowNumber int) (SeatRow, bool) {
	row, ok := l.rows[rowNumber]
	return row, ok
}

// Rows は座席列を列番号の昇順で返す
func (l SeatLayout) Rows() []SeatRow {
	rows := make([]SeatRow, 0, len(l.rows))
	for _, row := range l.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].rowNumber < rows[j].rowNumber })
	return rows
}

// RowCount は座席列の本数を返す
func (l SeatLayout) RowCount() int { return len(l.rows) }

// TotalCapacity は全座席数を返す
func (l SeatLayout) TotalCapacity() int {
	total := 0
	for _, row := range l.rows {
		total += row.Capacity()
	}
	return total
}

// HasSeat は指定の座席が存在するかを返す
func (l SeatLayout) HasSeat(rowNumber int, columnLetter string) bool {
	row, ok := l.rows[rowNumber]
	if !ok || len(columnLetter) != 1 {
		return false
	}
	return row.HasColumn(rune(columnLetter[0]))
}

// IsPreferentialSeat は指定の座席が優先席かを返す
func (l SeatLayout) IsPreferentialSeat(rowNumber int, columnLetter string) bool {
	row, ok := l.rows[rowNumber]
	if !ok || len(columnLetter) != 1 {
		return false
	}
	return row.IsPreferential(rune(columnLetter[0]))
}

// Data は永続化用のプレーン表現を列番号の昇順で返す
func (l SeatLayout) Data() []SeatRowConfig {
	configs := make([]SeatRowConfig, 0, len(l.rows))
	for _, row := range l.Rows() {
		configs = append(configs, SeatRowConfig{
			RowNumber:               row.rowNumber,
			LastColumnLetter:        row.LastColumnLetter(),
			PreferentialSeatLetters: row.PreferentialSeatLetters(),
		})
	}
	return configs
}
