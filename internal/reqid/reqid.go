// Package reqid generates and parses the Raido identifier scheme:
// document IDs of the form REQ-YYYYMMDD-slug and item IDs carrying a
// two-digit per-document sequence suffix.
//
// Generators fail loudly with typed errors; parsers fail quietly with a
// comma-ok result meaning "not this shape". Callers rely on that asymmetry.
package reqid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/raido/internal/slug"
)

// Prefix is the constant leading token of every document ID.
const Prefix = "REQ"

// MaxItemNumber is the hard ceiling of items per document; the two-digit
// suffix cannot encode more.
const MaxItemNumber = 99

var (
	// ErrEmptyInput is returned when an ID generator receives an empty string.
	ErrEmptyInput = errors.New("reqid: empty input")
	// ErrInvalidSlug is returned when the input normalizes to an empty slug.
	ErrInvalidSlug = errors.New("reqid: input normalizes to empty slug")
	// ErrInvalidDocID is returned when a generator receives a malformed document ID.
	ErrInvalidDocID = errors.New("reqid: malformed document id")
	// ErrInvalidItemNumber is returned when an item number is outside 1..99.
	ErrInvalidItemNumber = errors.New("reqid: item number out of range")
)

var docIDRe = regexp.MustCompile(`^` + Prefix + `-(\d{8})-([a-z0-9-]+)$`)

// DocRef is the decoded form of a document ID. The embedded date and slug
// are informational: they record what the ID was generated from and may
// diverge from the live project record.
type DocRef struct {
	Date        time.Time
	ProjectSlug string
}

// ItemRef is the decoded form of an item ID.
type ItemRef struct {
	DocID       string
	ItemNumber  int
	Date        time.Time
	ProjectSlug string
}

// GenerateDocID builds REQ-YYYYMMDD-slug from a project name (or existing
// slug) and a date. The date's local calendar fields are used.
func GenerateDocID(project string, date time.Time) (string, error) {
	if project == "" {
		return "", ErrEmptyInput
	}
	s := slug.Make(project)
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, project)
	}
	y, m, d := date.Date()
	return fmt.Sprintf("%s-%04d%02d%02d-%s", Prefix, y, int(m), d, s), nil
}

// ParseDocID decodes a document ID, reporting ok=false for anything that is
// not document-ID-shaped or whose 8-digit block is not a real calendar date.
//
// A well-formed item ID also satisfies this shape (the slug pattern admits
// a trailing -NN); callers that must tell the two apart use ParseItemID.
func ParseDocID(s string) (DocRef, bool) {
	m := docIDRe.FindStringSubmatch(s)
	if m == nil {
		return DocRef{}, false
	}
	date, ok := parseCalendarDate(m[1])
	if !ok {
		return DocRef{}, false
	}
	return DocRef{Date: date, ProjectSlug: m[2]}, true
}

// GenerateItemID appends a zero-padded two-digit sequence suffix to a
// document ID. n must be within 1..MaxItemNumber.
func GenerateItemID(docID string, n int) (string, error) {
	if _, ok := ParseDocID(docID); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDocID, docID)
	}
	if n < 1 || n > MaxItemNumber {
		return "", fmt.Errorf("%w: %d", ErrInvalidItemNumber, n)
	}
	return fmt.Sprintf("%s-%02d", docID, n), nil
}

// ParseItemID decodes an item ID: a document ID plus a trailing suffix of
// exactly two digits. One- or three-digit suffixes are rejected, as is any
// embedded date that fails the calendar check.
func ParseItemID(s string) (ItemRef, bool) {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return ItemRef{}, false
	}
	suffix := s[i+1:]
	if len(suffix) != 2 || !isDigits(suffix) {
		return ItemRef{}, false
	}
	docID := s[:i]
	ref, ok := ParseDocID(docID)
	if !ok {
		return ItemRef{}, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return ItemRef{}, false
	}
	return ItemRef{
		DocID:       docID,
		ItemNumber:  n,
		Date:        ref.Date,
		ProjectSlug: ref.ProjectSlug,
	}, true
}

// NextItemNumber returns one past the highest item number found among ids.
// IDs that fail to parse are skipped, so a corrupted or empty index degrades
// to 1 (start fresh) instead of aborting. This function never fails.
func NextItemNumber(ids []string) int {
	max := 0
	for _, id := range ids {
		ref, ok := ParseItemID(id)
		if !ok {
			continue
		}
		if ref.ItemNumber > max {
			max = ref.ItemNumber
		}
	}
	return max + 1
}

// parseCalendarDate decodes an 8-digit YYYYMMDD block into a UTC midnight
// time, rejecting impossible dates (month 13, Feb 31, day 00, ...).
func parseCalendarDate(s string) (time.Time, bool) {
	y, _ := strconv.Atoi(s[:4])
	mo, _ := strconv.Atoi(s[4:6])
	d, _ := strconv.Atoi(s[6:8])

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; a real date survives
	// the round trip unchanged.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
