package ingest

import "fmt"

// FetchError records a per-file ingestion failure.
type FetchError struct {
	Name string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("fetch %s (%s): %v", e.Name, e.URL, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
