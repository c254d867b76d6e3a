package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3Object is one stored object in the in-memory bucket
type mockS3Object struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	lastModified time.Time
}

// MockS3Client is an in-memory S3API implementation for tests
type MockS3Client struct {
	mu      sync.Mutex
	objects map[string]*mockS3Object
	putErr  error
	listErr error
}

// NewMockS3Client creates an empty in-memory bucket
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{objects: make(map[string]*mockS3Object)}
}

// FailPuts makes subsequent PutObject calls return err
func (m *MockS3Client) FailPuts(err error) { m.putErr = err }

// FailLists makes subsequent ListObjectsV2 calls return err
func (m *MockS3Client) FailLists(err error) { m.listErr = err }

func (m *MockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(params.Key)] = &mockS3Object{
		data:         data,
		contentType:  aws.ToString(params.ContentType),
		metadata:     params.Metadata,
		lastModified: time.Now().UTC(),
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

func (m *MockS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	prefix := aws.ToString(params.Prefix)
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, key := range keys {
		obj := m.objects[key]
		k := key
		lm := obj.lastModified
		out.Contents = append(out.Contents, types.Object{
			Key:          &k,
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: &lm,
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func (m *MockS3Client) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// ObjectCount reports how many objects the bucket holds
func (m *MockS3Client) ObjectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
