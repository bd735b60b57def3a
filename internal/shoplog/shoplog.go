// Package shoplog reads and maintains the PayPal module's request/response
// log so tests can cross-check what the shop actually sent to PayPal.
package shoplog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeSource   = "page_source"
)

var ErrMismatch = errors.New("payment log mismatch")

// Entry is one line of the log.
type Entry struct {
	Type string            `json:"type"`
	SID  string            `json:"sid"`
	Time time.Time         `json:"time,omitempty"`
	Data map[string]string `json:"data"`
}

type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) Append(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open payment log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write payment log: %w", err)
	}
	return nil
}

// AppendPageSource archives the page a timed out step was looking at.
func (s *Store) AppendPageSource(url, html string) error {
	return s.Append(Entry{
		Type: TypeSource,
		Data: map[string]string{"url": url, "html": html},
	})
}

// Entries returns every entry in file order. A missing log is empty.
func (s *Store) Entries() ([]Entry, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open payment log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	// page sources are long single lines
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("payment log line %d: %w", n, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read payment log: %w", err)
	}
	return entries, nil
}

// Clean truncates the log.
func (s *Store) Clean() error {
	if err := os.WriteFile(s.Path, nil, 0o644); err != nil {
		return fmt.Errorf("clean payment log: %w", err)
	}
	return nil
}

// Rotate moves the log aside under a timestamped name and returns it.
// Nothing happens when there is no log yet.
func (s *Store) Rotate(now time.Time) (string, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	target := s.Path + "." + now.Format("20060102-150405.000000")
	if err := os.Rename(s.Path, target); err != nil {
		return "", fmt.Errorf("rotate payment log: %w", err)
	}
	return target, nil
}

// VerifyLastExchange checks that the log ends with a request/response pair
// of one session carrying the expected values.
func VerifyLastExchange(entries []Entry, wantRequest, wantResponse map[string]string) error {
	var exchange []Entry
	for _, e := range entries {
		if e.Type == TypeRequest || e.Type == TypeResponse {
			exchange = append(exchange, e)
		}
	}
	if len(exchange) < 2 {
		return fmt.Errorf("%w: expected a request and a response, log has %d exchange entries", ErrMismatch, len(exchange))
	}

	response := exchange[len(exchange)-1]
	request := exchange[len(exchange)-2]

	var errs []error
	if response.Type != TypeResponse {
		errs = append(errs, fmt.Errorf("last entry is a %s, want %s", response.Type, TypeResponse))
	}
	if request.Type != TypeRequest {
		errs = append(errs, fmt.Errorf("entry before last is a %s, want %s", request.Type, TypeRequest))
	}
	if request.SID != response.SID {
		errs = append(errs, fmt.Errorf("session differs: request %q, response %q", request.SID, response.SID))
	}
	errs = append(errs, compareValues(TypeRequest, request.Data, wantRequest)...)
	errs = append(errs, compareValues(TypeResponse, response.Data, wantResponse)...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMismatch, errors.Join(errs...))
	}
	return nil
}

func compareValues(kind string, got, want map[string]string) []error {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		v, ok := got[k]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%s: %s is missing, want %q", kind, k, want[k]))
		case v != want[k]:
			errs = append(errs, fmt.Errorf("%s: %s is %q, want %q", kind, k, v, want[k]))
		}
	}
	return errs
}
