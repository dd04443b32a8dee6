package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/glassechidna/ddbsnowflake/artifacts"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"time"
)

const (
	InvalidFormatBody = "Invalid event format. 'Records' key missing."
	NoRecordsBody     = "No records to process."
)

// Response is returned to the Lambda runtime for every handled batch.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Processor struct {
	artifacts artifacts.Writer
	prefix    string
	logger    *zap.Logger
	now       func() time.Time
}

func NewProcessor(w artifacts.Writer, prefix string, logger *zap.Logger) *Processor {
	return &Processor{artifacts: w, prefix: prefix, logger: logger, now: time.Now}
}

// Handle flattens the INSERT records of one stream batch into a CSV artifact.
// A payload without Records yields 400 and a batch without INSERTs yields
// 204; neither writes anything. Malformed INSERT records, INSERTs from more
// than one table and upload failures abort the batch with an error.
func (p *Processor) Handle(ctx context.Context, payload json.RawMessage) (*Response, error) {
	logger := p.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(zap.String("requestId", lc.AwsRequestID))
	}

	envelope := map[string]json.RawMessage{}
	err := json.Unmarshal(payload, &envelope)
	rawRecords, ok := envelope["Records"]
	if err != nil || !ok {
		logger.Warn("no Records key found", zap.ByteString("event", payload))
		return &Response{StatusCode: 400, Body: InvalidFormatBody}, nil
	}

	records := []Record{}
	err = json.Unmarshal(rawRecords, &records)
	if err != nil {
		return nil, errors.Wrap(err, "decoding Records")
	}

	logger.Info("received event", zap.Int("records", len(records)))
	logger.Debug("event payload", zap.ByteString("event", payload))

	table, tableName, err := p.flatten(records)
	if err != nil {
		return nil, err
	}

	if table.Len() == 0 {
		logger.Info("no INSERT records found")
		return &Response{StatusCode: 204, Body: NoRecordsBody}, nil
	}

	key := artifacts.Key(p.prefix, tableName, p.now())
	logger.Info("generated s3 key", zap.String("key", key), zap.String("table", tableName))

	buf := &bytes.Buffer{}
	err = table.WriteCSV(buf)
	if err != nil {
		return nil, err
	}

	err = p.artifacts.PutArtifact(ctx, key, buf)
	if err != nil {
		return nil, err
	}

	logger.Info("processed INSERT records", zap.Int("rows", table.Len()), zap.String("key", key))
	return &Response{
		StatusCode: 200,
		Body:       fmt.Sprintf("Processed %d records and saved to %s.", table.Len(), key),
	}, nil
}

func (p *Processor) flatten(records []Record) (*Table, string, error) {
	table := NewTable()
	tableName := ""

	for idx := range records {
		record := &records[idx]
		if record.EventName != string(events.DynamoDBOperationTypeInsert) {
			continue
		}

		name, err := record.TableName()
		if err != nil {
			return nil, "", errors.Wrap(err, record.describe(idx))
		}
		if len(tableName) > 0 && name != tableName {
			return nil, "", errors.Errorf("%s: table %q differs from %q earlier in the batch", record.describe(idx), name, tableName)
		}
		tableName = name

		im, err := record.Image()
		if err != nil {
			return nil, "", errors.Wrap(err, record.describe(idx))
		}

		err = table.Append(im)
		if err != nil {
			return nil, "", errors.Wrap(err, record.describe(idx))
		}
	}

	return table, tableName, nil
}
