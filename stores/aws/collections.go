package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"dnastudio/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// objectAPI is the subset of the S3 client used by the store.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Store struct {
	client objectAPI
	bucket string
	prefix string
	// mu serialises Append within this process only.
	mu sync.Mutex
}

// NewStore creates an S3-backed store using the default AWS credential chain.
func NewStore(ctx context.Context, bucket, prefix string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newStoreWithClient(client objectAPI, bucket, prefix string) *s3Store {
	return &s3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *s3Store) key(name string) (string, error) {
	if err := core.ValidateCollectionName(name); err != nil {
		return "", err
	}
	return s.prefix + name + ".json", nil
}

func (s *s3Store) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, name, key)
}

func (s *s3Store) get(ctx context.Context, name, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("collection %s: %w", name, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get collection %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return data, nil
}

func (s *s3Store) Save(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	return s.put(ctx, name, key, data)
}

func (s *s3Store) put(ctx context.Context, name, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"collection": name, "key": key}).WithError(err).Error("Failed to save collection")
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}
	return nil
}

func (s *s3Store) Append(ctx context.Context, name string, entry []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(ctx, name, key)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	updated, err := core.AppendEntry(existing, entry)
	if err != nil {
		return err
	}
	return s.put(ctx, name, key, updated)
}

func (s *s3Store) Names(ctx context.Context) ([]string, error) {
	var names []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list collections: %w", err)
		}
		for _, obj := range out.Contents {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), ".json")
			if core.ValidateCollectionName(name) == nil {
				names = append(names, name)
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(names)
	return names, nil
}
