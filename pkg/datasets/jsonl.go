package datasets

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/prompteng/teleprompt/pkg/core"
)

// jsonlRecord is the on-disk shape of one example: the inputs the program
// receives and the outputs the metric scores against.
type jsonlRecord struct {
	Inputs  map[string]interface{} `json:"inputs"`
	Outputs map[string]interface{} `json:"outputs"`
}

// LoadJSONL reads a JSON-lines file of {"inputs": {...}, "outputs": {...}}
// records. Blank lines are skipped; a malformed line or a record without
// both maps fails the whole load.
func LoadJSONL(path string) ([]core.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f)
}

// ReadJSONL is LoadJSONL over an arbitrary reader.
func ReadJSONL(r io.Reader) ([]core.Example, error) {
	var examples []core.Example

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record jsonlRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, &LoadError{Line: line, Err: err}
		}

		example := core.Example{Inputs: record.Inputs, Outputs: record.Outputs}
		if !example.Valid() {
			return nil, &LoadError{Line: line, Err: errMissingFields}
		}
		examples = append(examples, example)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return examples, nil
}
