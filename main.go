package main

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/glassechidna/ddbsnowflake/artifacts"
	"github.com/glassechidna/ddbsnowflake/config"
	"github.com/glassechidna/ddbsnowflake/stream"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"io/ioutil"
	"os"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sess, err := session.NewSessionWithOptions(session.Options{
		Profile:                 cfg.AWSProfile,
		SharedConfigState:       session.SharedConfigEnable,
		AssumeRoleTokenProvider: stscreds.StdinTokenProvider,
	})
	if err != nil {
		panic(err)
	}

	p := newProcessor(s3manager.NewUploader(sess), cfg, logger)

	if cfg.IsLambda() {
		lambda.Start(p.Handle)
		return
	}

	in := io.Reader(os.Stdin)
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			panic(err)
		}
		defer f.Close()
		in = f
	}

	err = runOnce(context.Background(), p, in, os.Stdout)
	if err != nil {
		logger.Fatal("processing event", zap.Error(err))
	}
}

func newProcessor(uploader s3manageriface.UploaderAPI, cfg *config.Config, logger *zap.Logger) *stream.Processor {
	w := artifacts.NewS3Artifacts(uploader, cfg.Bucket, logger)
	return stream.NewProcessor(w, cfg.KeyPrefix, logger)
}

// runOnce replays a single event payload outside of Lambda.
func runOnce(ctx context.Context, p *stream.Processor, in io.Reader, out io.Writer) error {
	payload, err := ioutil.ReadAll(in)
	if err != nil {
		return errors.WithStack(err)
	}

	resp, err := p.Handle(ctx, payload)
	if err != nil {
		return err
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = fmt.Fprintln(out, string(respJson))
	return errors.WithStack(err)
}
