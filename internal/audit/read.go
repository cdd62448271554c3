package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
)

// Filter narrows Read results. Zero values match everything.
type Filter struct {
	SessionID string
	ToolName  string
	Limit     int // keep only the newest Limit records when > 0
}

func (f Filter) match(r Record) bool {
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.ToolName != "" && r.ToolName != f.ToolName {
		return false
	}
	return true
}

// Read loads records from path in file order. A missing file yields no
// records; lines that do not decode are skipped.
func Read(path string, filter Filter) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f, filter)
}

// Decode reads JSON Lines records from r.
func Decode(r io.Reader, filter Filter) ([]Record, error) {
	var out []Record
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var rec Record
			if jsonErr := json.Unmarshal(line, &rec); jsonErr == nil && filter.match(rec) {
				out = append(out, rec)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}
