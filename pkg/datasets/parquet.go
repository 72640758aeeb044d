package datasets

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/prompteng/teleprompt/pkg/core"
)

// LoadParquetQA reads a parquet file with string columns named by
// inputColumn and outputColumn and turns each row into an example with a
// single input and a single output field. This covers the common layout of
// question answering corpora distributed as parquet.
func LoadParquetQA(ctx context.Context, path, inputColumn, outputColumn string) ([]core.Example, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	inputIndices := schema.FieldIndices(inputColumn)
	outputIndices := schema.FieldIndices(outputColumn)
	if len(inputIndices) == 0 || len(outputIndices) == 0 {
		return nil, fmt.Errorf("columns %q and %q not found in schema", inputColumn, outputColumn)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	defer table.Release()

	inputValues, err := stringColumn(table.Column(inputIndices[0]).Data().Chunks())
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", inputColumn, err)
	}
	outputValues, err := stringColumn(table.Column(outputIndices[0]).Data().Chunks())
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", outputColumn, err)
	}
	if len(inputValues) != len(outputValues) {
		return nil, fmt.Errorf("column length mismatch: %d inputs, %d outputs", len(inputValues), len(outputValues))
	}

	examples := make([]core.Example, len(inputValues))
	for i := range examples {
		examples[i] = core.Example{
			Inputs:  map[string]interface{}{inputColumn: inputValues[i]},
			Outputs: map[string]interface{}{outputColumn: outputValues[i]},
		}
	}
	return examples, nil
}

// stringColumn flattens a chunked string column into a plain slice.
func stringColumn(chunks []arrow.Array) ([]string, error) {
	var values []string
	for _, chunk := range chunks {
		strs, ok := chunk.(*array.String)
		if !ok {
			return nil, fmt.Errorf("unsupported column type %T, want string", chunk)
		}
		for i := 0; i < strs.Len(); i++ {
			values = append(values, strs.Value(i))
		}
	}
	return values, nil
}
