package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

// Record is one entry of a DynamoDB stream batch. NewImage stays raw until
// Image is called.
type Record struct {
	EventID        string        `json:"eventID"`
	EventName      string        `json:"eventName"`
	EventSourceARN string        `json:"eventSourceARN"`
	Dynamodb       *StreamRecord `json:"dynamodb"`
}

type StreamRecord struct {
	NewImage       json.RawMessage `json:"NewImage"`
	SequenceNumber string          `json:"SequenceNumber"`
}

// Attribute is a NewImage entry with its type wrapper removed. Tag only
// shows up in error messages.
type Attribute struct {
	Name  string
	Tag   string
	Value json.RawMessage
}

// Image is a NewImage in payload order.
type Image []Attribute

// TableName returns the second slash-delimited segment of a stream ARN.
func TableName(arn string) (string, error) {
	if len(arn) == 0 {
		return "", errors.New("missing eventSourceARN")
	}

	parts := strings.Split(arn, "/")
	if len(parts) < 2 || len(parts[1]) == 0 {
		return "", errors.Errorf("malformed eventSourceARN %q", arn)
	}

	return parts[1], nil
}

// describe identifies the record in errors.
func (r *Record) describe(idx int) string {
	desc := fmt.Sprintf("record %d", idx)
	if len(r.EventID) > 0 {
		desc += fmt.Sprintf(" (eventID %s", r.EventID)
		if r.Dynamodb != nil && len(r.Dynamodb.SequenceNumber) > 0 {
			desc += ", sequence " + r.Dynamodb.SequenceNumber
		}
		desc += ")"
	}
	return desc
}

func (r *Record) TableName() (string, error) {
	return TableName(r.EventSourceARN)
}

// Image decodes dynamodb.NewImage.
func (r *Record) Image() (Image, error) {
	if r.Dynamodb == nil || len(r.Dynamodb.NewImage) == 0 || string(r.Dynamodb.NewImage) == "null" {
		return nil, errors.New("missing dynamodb.NewImage")
	}

	var im Image
	err := json.Unmarshal(r.Dynamodb.NewImage, &im)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return im, nil
}

func (im *Image) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return errors.WithStack(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("NewImage must be an object, got %s", string(b))
	}

	out := Image{}
	index := map[string]int{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.WithStack(err)
		}
		name := tok.(string)

		wrapper := map[string]json.RawMessage{}
		err = dec.Decode(&wrapper)
		if err != nil {
			return errors.Wrapf(err, "attribute %q", name)
		}

		attr, err := unwrap(name, wrapper)
		if err != nil {
			return err
		}

		if i, seen := index[name]; seen {
			out[i] = attr
			continue
		}
		index[name] = len(out)
		out = append(out, attr)
	}

	_, err = dec.Token()
	if err != nil {
		return errors.WithStack(err)
	}

	*im = out
	return nil
}

// unwrap accepts any single-entry type wrapper. Empty and multi-entry
// wrappers are rejected instead of picking an arbitrary entry.
func unwrap(name string, wrapper map[string]json.RawMessage) (Attribute, error) {
	if len(wrapper) != 1 {
		return Attribute{}, errors.Errorf("attribute %q: type wrapper must have exactly one entry, has %d", name, len(wrapper))
	}

	for tag, value := range wrapper {
		return Attribute{Name: name, Tag: tag, Value: value}, nil
	}
	panic("unreachable")
}

// Text renders an unwrapped value as a CSV cell: strings lose their quotes,
// everything else is compact JSON.
func Text(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, errors.WithStack(err)
	}

	buf := &bytes.Buffer{}
	err := json.Compact(buf, trimmed)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return buf.String(), nil
}
