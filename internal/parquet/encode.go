// Package parquet serializes one observation row into a gzip-compressed,
// single-row-group Parquet buffer readable by any standard Parquet reader.
package parquet

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go-source/writerfile"
	parquetfmt "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/wxlake/weather-extractor/internal/observation"
)

// Marshal encodes the row. The schema is built from the row itself: strings
// become BYTE_ARRAY/UTF8 columns, numbers DOUBLE, booleans BOOLEAN.
func Marshal(row observation.Row) ([]byte, error) {
	if len(row.Columns) == 0 {
		return nil, fmt.Errorf("parquet: row has no columns")
	}

	md := make([]string, 0, len(row.Columns))
	values := make([]interface{}, 0, len(row.Columns))

	for _, col := range row.Columns {
		switch v := col.Value.(type) {
		case string:
			md = append(md, fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY", col.Name))
			values = append(values, v)
		case float64:
			md = append(md, fmt.Sprintf("name=%s, type=DOUBLE", col.Name))
			values = append(values, v)
		case bool:
			md = append(md, fmt.Sprintf("name=%s, type=BOOLEAN", col.Name))
			values = append(values, v)
		default:
			return nil, fmt.Errorf("parquet: unsupported value type %T for column %q", col.Value, col.Name)
		}
	}

	var buf bytes.Buffer
	fw := writerfile.NewWriterFile(&buf)

	pw, err := writer.NewCSVWriter(md, fw, 1)
	if err != nil {
		return nil, fmt.Errorf("parquet: create writer: %w", err)
	}
	pw.CompressionType = parquetfmt.CompressionCodec_GZIP

	if err := pw.Write(values); err != nil {
		return nil, fmt.Errorf("parquet: write row: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("parquet: finalize: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet: close buffer: %w", err)
	}

	return buf.Bytes(), nil
}
