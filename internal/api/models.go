package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tessro/earshot/internal/core"
)

// flexID accepts a JSON number or string id.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// seconds accepts fractional seconds as a JSON number or numeric string.
type seconds float64

func (s *seconds) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if str == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("seconds: %w", err)
		}
		*s = seconds(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("seconds: %w", err)
	}
	*s = seconds(v)
	return nil
}

func (s seconds) Duration() time.Duration {
	return core.Seconds(float64(s))
}

// audio is the backend's resource record.
type audio struct {
	ID         flexID      `json:"id"`
	FileName   string      `json:"fileName"`
	FileType   string      `json:"fileType"`
	FilePath   string      `json:"filePath"`
	FileSize   int64       `json:"fileSize"`
	Duration   seconds     `json:"duration"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	Transcript *transcript `json:"transcript"`
}

type transcript struct {
	ID       flexID    `json:"id"`
	Segments []segment `json:"segments"`
}

type segment struct {
	ID         flexID  `json:"id"`
	StartTime  seconds `json:"startTime"`
	EndTime    seconds `json:"endTime"`
	Text       string  `json:"text"`
	Confidence seconds `json:"confidence"`
}

// mark is the wire form of a bookmark.
type mark struct {
	ID        flexID  `json:"id"`
	Name      string  `json:"name"`
	TimeStamp seconds `json:"timeStamp"`
}

type createMarkRequest struct {
	Name      string  `json:"name"`
	TimeStamp float64 `json:"timeStamp"`
}

type searchRequest struct {
	Text         string `json:"text"`
	TranscriptID string `json:"transcriptId"`
}

type summaryRequest struct {
	Language string `json:"language"`
}

type keyTopicsRequest struct {
	Language  string `json:"language"`
	SummaryID string `json:"summaryId"`
}

// summary is the backend's generated summary record.
type summary struct {
	ID        flexID       `json:"id"`
	Summary   string       `json:"summary"`
	Language  string       `json:"language"`
	KeyTopics []core.Topic `json:"keyTopics"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a audio) toResource() core.Resource {
	r := core.Resource{
		ID:        string(a.ID),
		Name:      a.FileName,
		Locator:   a.FilePath,
		FileType:  a.FileType,
		FileSize:  a.FileSize,
		Duration:  a.Duration.Duration(),
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
	if a.Transcript != nil {
		r.TranscriptID = string(a.Transcript.ID)
	}
	return r
}

func (s summary) toSummary() core.Summary {
	return core.Summary{
		ID:        string(s.ID),
		Language:  s.Language,
		Text:      s.Summary,
		KeyTopics: s.KeyTopics,
	}
}

func (m mark) toBookmark() core.Bookmark {
	return core.Bookmark{
		ID:        string(m.ID),
		Label:     m.Name,
		Timestamp: m.TimeStamp.Duration(),
	}
}

func (s segment) toSegment() core.Segment {
	return core.Segment{
		ID:         string(s.ID),
		Start:      s.StartTime.Duration(),
		End:        s.EndTime.Duration(),
		Text:       s.Text,
		Confidence: float64(s.Confidence),
	}
}

func (s segment) toHit() core.SearchHit {
	return core.SearchHit{
		Start: s.StartTime.Duration(),
		End:   s.EndTime.Duration(),
		Text:  s.Text,
	}
}
