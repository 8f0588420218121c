package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// ErrMalformedRow 表示数据文件中存在无法解析的行，整个批次被放弃。
var ErrMalformedRow = errors.New("malformed row")

// ErrUnsupportedFormat 表示文件既不是 CSV 文本也不是 XLSX。
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table 是读入内存的二维表，Header 已经过规范化。
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func newTable(header []string, rows [][]string, normalize func(string) string) *Table {
	t := &Table{Header: make([]string, len(header)), Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		name := normalize(h)
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Has 报告表中是否存在某一列。
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Value 返回第 row 行 column 列去除首尾空白后的值，列不存在或单元格缺失时返回空串。
func (t *Table) Value(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadFile 读取 CSV 或 XLSX 文件，格式由文件内容检测，sep 只对 CSV 生效。
func ReadFile(path string, sep rune, normalize func(string) string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	return Read(data, sep, normalize)
}

// Read 从内存数据解析表格。
func Read(data []byte, sep rune, normalize func(string) string) (*Table, error) {
	mtype := mimetype.Detect(data)
	switch {
	case isZip(mtype):
		return readXLSX(data, normalize)
	case isText(mtype):
		return readCSV(bytes.NewReader(data), sep, normalize)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}
}

// isZip 判断是否为 XLSX。识别不出具体 Office 类型的 zip 也交给 excelize 尝试打开。
func isZip(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") || m.Is("application/zip") {
			return true
		}
	}
	return false
}

// isText 沿父类型链判断是否为纯文本，text/csv 等子类型也算。
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func readCSV(r io.Reader, sep rune, normalize func(string) string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 失败: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("数据文件为空")
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return newTable(header, records[1:], normalize), nil
}

func readXLSX(data []byte, normalize func(string) string) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("打开 XLSX 失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX 中没有工作表")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("数据文件为空")
	}
	return newTable(rows[0], rows[1:], normalize), nil
}
