package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"imagesapi/internal/config"
	"imagesapi/pkg/utils"
)

// objectAPI is the subset of *s3.Client used by the S3 driver.
type objectAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Client hosts images in an S3-compatible bucket. The object key is the
// upstream id, and its extension follows the content type, so a content
// type change moves the object and yields a new id and url together.
type s3Client struct {
	api        objectAPI
	bucket     string
	region     string
	publicBase string
	log        *zap.Logger
}

func NewS3Client(ctx context.Context, cfg *config.S3Config, log *zap.Logger) (Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	c := newS3Client(api, cfg, log)

	if err := c.ensureBucketExists(ctx); err != nil {
		log.Warn("Failed to ensure bucket exists", zap.Error(err))
	}

	return c, nil
}

func newS3Client(api objectAPI, cfg *config.S3Config, log *zap.Logger) *s3Client {
	return &s3Client{
		api:        api,
		bucket:     cfg.BucketName,
		region:     cfg.Region,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:        log,
	}
}

func (c *s3Client) ensureBucketExists(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err == nil {
		c.log.Info("Bucket already exists", zap.String("bucket", c.bucket))
		return nil
	}

	c.log.Info("Creating bucket", zap.String("bucket", c.bucket))

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}
	// us-east-1 rejects an explicit location constraint.
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		return err
	}

	c.log.Info("Bucket created successfully", zap.String("bucket", c.bucket))
	return nil
}

func (c *s3Client) Create(ctx context.Context, p Payload) (*Image, error) {
	key := uuid.New().String() + utils.ExtensionForContentType(p.ContentType)
	if err := c.put(ctx, key, p.Data, p.ContentType); err != nil {
		return nil, err
	}
	return c.image(key, p.ContentType), nil
}

func (c *s3Client) Replace(ctx context.Context, id string, p Payload) (*Image, error) {
	return c.Patch(ctx, id, p)
}

func (c *s3Client) Patch(ctx context.Context, id string, p Payload) (*Image, error) {
	contentType := p.ContentType
	if contentType == "" {
		contentType = utils.ContentTypeForKey(id)
	}
	key := id
	if p.ContentType != "" {
		key = utils.ReplaceExtension(id, utils.ExtensionForContentType(p.ContentType))
	}

	if p.Data != "" {
		if err := c.put(ctx, key, p.Data, contentType); err != nil {
			return nil, err
		}
	} else if err := c.copy(ctx, id, key, contentType); err != nil {
		return nil, err
	}

	if key == id {
		return nil, nil
	}
	if err := c.Delete(ctx, id); err != nil {
		// The new object is in place; the old one is only garbage now.
		c.log.Warn("Failed to remove replaced object",
			zap.String("key", id),
			zap.Error(err))
	}
	return c.image(key, contentType), nil
}

func (c *s3Client) Delete(ctx context.Context, id string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		c.log.Error("Failed to delete object from S3",
			zap.String("key", id),
			zap.Error(err))
		return toStatusError(err)
	}

	c.log.Info("Object deleted from S3", zap.String("key", id))
	return nil
}

func (c *s3Client) put(ctx context.Context, key, data, contentType string) error {
	body, err := utils.DecodeBase64(data)
	if err != nil {
		return fmt.Errorf("decode image data: %w", err)
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		c.log.Error("Failed to upload object to S3",
			zap.String("key", key),
			zap.Error(err))
		return toStatusError(err)
	}

	c.log.Info("Object uploaded to S3",
		zap.String("key", key),
		zap.Int("size", len(body)))
	return nil
}

// copy rewrites the object metadata, moving it when the key changes.
func (c *s3Client) copy(ctx context.Context, sourceKey, destKey, contentType string) error {
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(c.bucket),
		CopySource:        aws.String(c.bucket + "/" + sourceKey),
		Key:               aws.String(destKey),
		ContentType:       aws.String(contentType),
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		c.log.Error("Failed to copy object in S3",
			zap.String("source", sourceKey),
			zap.String("destination", destKey),
			zap.Error(err))
		return toStatusError(err)
	}

	c.log.Info("Object copied in S3",
		zap.String("source", sourceKey),
		zap.String("destination", destKey))
	return nil
}

func (c *s3Client) image(key, contentType string) *Image {
	return &Image{
		ID:          key,
		ImageURL:    c.publicBase + "/" + key,
		ContentType: contentType,
	}
}

// toStatusError keeps the HTTP status of S3 errors so they are reported
// like any other host failure.
func toStatusError(err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return &StatusError{StatusCode: respErr.HTTPStatusCode(), Message: respErr.Error()}
	}
	return err
}
