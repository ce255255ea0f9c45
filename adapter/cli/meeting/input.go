package meeting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
)

// uploadEntry is one participant in an availability file.
type uploadEntry struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Timezone string             `json:"timezone"`
	Slots    []domain.RawWindow `json:"slots"`
}

func (e uploadEntry) input() domain.ParticipantInput {
	return domain.ParticipantInput{
		ID:          strings.TrimSpace(e.Email),
		DisplayName: e.Name,
		Timezone:    e.Timezone,
		Windows:     e.Slots,
	}
}

// ReadParticipants decodes an availability file. Both an object keyed by an
// arbitrary user key and a plain array are accepted; file order is kept.
func ReadParticipants(r io.Reader) ([]domain.ParticipantInput, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("availability file is empty")
	}

	if raw[0] == '[' {
		var entries []uploadEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("invalid availability file: %w", err)
		}
		inputs := make([]domain.ParticipantInput, 0, len(entries))
		for _, e := range entries {
			inputs = append(inputs, e.input())
		}
		return inputs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New("invalid availability file: expected an object or an array")
	}

	var inputs []domain.ParticipantInput
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid availability file: %w", err)
		}
		var entry uploadEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("invalid availability entry %v: %w", key, err)
		}
		inputs = append(inputs, entry.input())
	}
	return inputs, nil
}

// ReadParticipantsFile opens path, or stdin for "-".
func ReadParticipantsFile(path string) ([]domain.ParticipantInput, error) {
	if path == "-" {
		return ReadParticipants(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParticipants(f)
}

// ParseManualRow parses "start,end,email[,timezone]".
func ParseManualRow(row string) (domain.ParticipantInput, error) {
	parts := strings.Split(row, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || len(parts) > 4 {
		return domain.ParticipantInput{}, fmt.Errorf("invalid participant row %q: want start,end,email[,timezone]", row)
	}

	in := domain.ParticipantInput{
		ID:      parts[2],
		Windows: []domain.RawWindow{{Start: parts[0], End: parts[1]}},
	}
	if len(parts) == 4 {
		in.Timezone = parts[3]
	}
	return in, nil
}

// MergeRows appends manual rows to inputs. A row whose e-mail is already
// present adds its window to that participant; a differing timezone is kept
// from the first occurrence.
func MergeRows(inputs []domain.ParticipantInput, rows []string) ([]domain.ParticipantInput, error) {
	index := make(map[string]int, len(inputs))
	for i, in := range inputs {
		index[domain.IdentityKey(in.ID)] = i
	}

	for _, row := range rows {
		in, err := ParseManualRow(row)
		if err != nil {
			return nil, err
		}
		key := domain.IdentityKey(in.ID)
		if i, ok := index[key]; ok {
			inputs[i].Windows = append(inputs[i].Windows, in.Windows...)
			if inputs[i].Timezone == "" {
				inputs[i].Timezone = in.Timezone
			}
			continue
		}
		index[key] = len(inputs)
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// loadParticipants combines the optional file with manual rows.
func loadParticipants(file string, rows []string) ([]domain.ParticipantInput, error) {
	var inputs []domain.ParticipantInput
	if file != "" {
		var err error
		if inputs, err = ReadParticipantsFile(file); err != nil {
			return nil, err
		}
	}
	inputs, err := MergeRows(inputs, rows)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no participants given; use --file or --participant")
	}
	return inputs, nil
}
