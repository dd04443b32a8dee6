package artifacts

import (
	"context"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"math/rand"
	"time"
)

const ContentType = "text/csv"

type s3Artifacts struct {
	api     s3manageriface.UploaderAPI
	bucket  string
	entropy io.Reader
	logger  *zap.Logger
}

func NewS3Artifacts(api s3manageriface.UploaderAPI, bucket string, logger *zap.Logger) *s3Artifacts {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return &s3Artifacts{api: api, bucket: bucket, entropy: entropy, logger: logger}
}

// PutArtifact uploads r to key. Failures are not retried.
func (s *s3Artifacts) PutArtifact(ctx context.Context, key string, r io.Reader) error {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()

	out, err := s.api.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        r,
		ContentType: aws.String(ContentType),
		Metadata: map[string]*string{
			"artifact-id": aws.String(id),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "uploading s3://%s/%s", s.bucket, key)
	}

	fields := []zap.Field{zap.String("bucket", s.bucket), zap.String("key", key), zap.String("artifactId", id)}
	if out != nil {
		fields = append(fields, zap.String("location", out.Location))
	}
	s.logger.Info("uploaded artifact", fields...)
	return nil
}
