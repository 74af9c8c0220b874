package common

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// CIResult is the single JSON document a tool prints in --ci mode.
type CIResult struct {
	OK          bool      `json:"ok"`
	Title       string    `json:"title"`
	Details     []string  `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

func PrintCIResult(ok bool, title string, details []string, err error) {
	_ = WriteCIResult(os.Stdout, ok, title, details, err)
}

func WriteCIResult(w io.Writer, ok bool, title string, details []string, err error) error {
	result := CIResult{OK: ok, Title: title, Details: details, CompletedAt: time.Now().UTC()}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
