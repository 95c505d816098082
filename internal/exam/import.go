package exam

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-portal/internal/progress"
)

// QuestionInput is the authoring wire format.
type QuestionInput struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	Course        string   `json:"course"`
	Difficulty    string   `json:"difficulty"`
	Type          string   `json:"type"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
	Weight        float64  `json:"weight"`
}

// Question converts the input, attributing it to author.
func (in QuestionInput) Question(author string) (Question, error) {
	scope, err := progress.ScopeFrom(in.Subject, in.Course)
	if err != nil {
		return Question{}, invalid("subject", err.Error())
	}
	tier, err := progress.ParseTier(in.Difficulty)
	if err != nil {
		return Question{}, invalid("difficulty", err.Error())
	}
	return Question{
		ID:         in.ID,
		Scope:      scope,
		Difficulty: tier,
		Type:       strings.TrimSpace(in.Type),
		Prompt:     in.Prompt,
		Options:    in.Options,
		Answer:     in.CorrectAnswer,
		Weight:     in.Weight,
		CreatedBy:  author,
	}, nil
}

// ParseQuestions reads a JSON array or a CSV document, sniffed by the first
// non-space byte. CSV columns: id,subject,course,difficulty,prompt,options,correct
// with optional weight and type; options are separated by '|'.
func ParseQuestions(r io.Reader, author string) ([]Question, error) {
	br := bufio.NewReader(r)
	var first byte
	for {
		b, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, invalid("file", "empty document")
			}
			return nil, err
		}
		if b[0] == ' ' || b[0] == '\n' || b[0] == '\r' || b[0] == '\t' {
			_, _ = br.ReadByte()
			continue
		}
		first = b[0]
		break
	}

	var inputs []QuestionInput
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&inputs); err != nil {
			return nil, invalid("file", "bad json: "+err.Error())
		}
	} else {
		var err error
		if inputs, err = parseCSV(br); err != nil {
			return nil, invalid("file", "bad csv: "+err.Error())
		}
	}

	out := make([]Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := in.Question(author)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func parseCSV(r io.Reader) ([]QuestionInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"difficulty", "prompt", "options", "correct"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var rows []QuestionInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		correct, err := strconv.Atoi(col(rec, "correct"))
		if err != nil {
			return nil, fmt.Errorf("line %d: correct: %w", line, err)
		}
		in := QuestionInput{
			ID:            col(rec, "id"),
			Subject:       col(rec, "subject"),
			Course:        col(rec, "course"),
			Difficulty:    col(rec, "difficulty"),
			Type:          col(rec, "type"),
			Prompt:        col(rec, "prompt"),
			CorrectAnswer: &correct,
		}
		for _, o := range strings.Split(col(rec, "options"), "|") {
			in.Options = append(in.Options, strings.TrimSpace(o))
		}
		if w := col(rec, "weight"); w != "" {
			if in.Weight, err = strconv.ParseFloat(w, 64); err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", line, err)
			}
		}
		rows = append(rows, in)
	}
	return rows, nil
}
